package lexicon

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse extracts words from a lexicon document. The format follows the
// extension of name: .json, .yaml/.yml, anything else is plain text.
func Parse(name string, data []byte) ([]string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseText(data), nil
	}
}

// parseText reads one entry per line. "word: meaning" lines keep the word;
// blank lines and # comments are skipped.
func parseText(data []byte) []string {
	var words []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if word, _, ok := strings.Cut(line, ":"); ok {
			line = word
		}
		if w := strings.TrimSpace(line); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// parseJSON accepts an array of words or an object keyed by word. Object keys
// are read with the token decoder so document order survives.
func parseJSON(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("json lexicon: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, errors.New("json lexicon: want array or object")
	}

	var words []string
	switch delim {
	case '[':
		for dec.More() {
			var w string
			if err := dec.Decode(&w); err != nil {
				return nil, fmt.Errorf("json lexicon entry: %w", err)
			}
			words = append(words, w)
		}
	case '{':
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("json lexicon key: %w", err)
			}
			w, _ := key.(string)
			var meaning json.RawMessage
			if err := dec.Decode(&meaning); err != nil {
				return nil, fmt.Errorf("json lexicon value for %q: %w", w, err)
			}
			words = append(words, w)
		}
	default:
		return nil, errors.New("json lexicon: want array or object")
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json lexicon: %w", err)
	}
	return words, nil
}

func parseYAML(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml lexicon: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]

	var words []string
	switch root.Kind {
	case yaml.SequenceNode:
		for _, n := range root.Content {
			words = append(words, n.Value)
		}
	case yaml.MappingNode:
		for i := 0; i < len(root.Content); i += 2 {
			words = append(words, root.Content[i].Value)
		}
	default:
		return nil, errors.New("yaml lexicon: want sequence or mapping")
	}
	return words, nil
}
