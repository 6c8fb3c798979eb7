package annotation

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Suggester proposes an emotion for a transcript. Annotators still decide.
type Suggester interface {
	Suggest(ctx context.Context, text string) (string, error)
}

// ClipSources maps clip IDs to the source video each was cut from.
type ClipSources interface {
	ClipSources(ctx context.Context) (map[string]string, error)
}

// ServerOptions configure the form. A clip's text is read from
// "{TextDir}/{clip}.txt" or, through Sources, from the transcript of its
// source video at "{TextDir}/{source stem}.txt".
type ServerOptions struct {
	ClipsDir     string
	TextDir      string
	ClipExt      string
	MajorityPath string
	Emotions     []string
	Suggester    Suggester
	Sources      ClipSources
}

// Item is one clip as shown on the form.
type Item struct {
	Clip       string
	Media      string
	Text       string
	Count      int
	Annotators []string
	Majority   string
	Suggestion string
}

// Server is the annotation form. Every accepted vote is appended to the log,
// added to the tally and reflected in the majority file before the redirect.
type Server struct {
	opts  ServerOptions
	log   *Log
	tally *Tally
	l     logrus.FieldLogger
	page  *template.Template
}

func NewServer(opts ServerOptions, log *Log, tally *Tally, l logrus.FieldLogger) *Server {
	if opts.ClipExt == "" {
		opts.ClipExt = ".mp4"
	}
	return &Server{
		opts:  opts,
		log:   log,
		tally: tally,
		l:     l,
		page:  template.Must(template.New("index").Parse(indexHTML)),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.index)
	mux.HandleFunc("/submit", s.submit)
	mux.HandleFunc("/healthz", healthHandler)
	mux.Handle("/media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.opts.ClipsDir))))
	return s.logging(mux)
}

// Submit records one vote.
func (s *Server) Submit(ctx context.Context, a Annotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.log.Append(ctx, a); err != nil {
		return err
	}
	s.tally.Record(a)
	if s.opts.MajorityPath == "" {
		return nil
	}
	return WriteMajority(s.opts.MajorityPath, s.tally)
}

// Items lists the clips on disk with their text and vote state.
func (s *Server) Items(ctx context.Context) ([]Item, error) {
	entries, err := os.ReadDir(s.opts.ClipsDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || !strings.EqualFold(filepath.Ext(n), s.opts.ClipExt) {
			continue
		}
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })

	var sources map[string]string
	if s.opts.Sources != nil {
		if sources, err = s.opts.Sources.ClipSources(ctx); err != nil {
			s.l.WithError(err).Warn("clip sources unavailable, showing per-clip text only")
		}
	}

	items := make([]Item, 0, len(names))
	for _, n := range names {
		clip := strings.TrimSuffix(n, filepath.Ext(n))
		it := Item{
			Clip:       clip,
			Media:      n,
			Text:       s.text(clip, sources[clip]),
			Count:      s.tally.Count(clip),
			Annotators: s.tally.Annotators(clip),
		}
		it.Majority, _ = s.tally.Majority(clip)
		if s.opts.Suggester != nil && it.Text != "" {
			if sug, err := s.opts.Suggester.Suggest(ctx, it.Text); err == nil {
				it.Suggestion = sug
			} else {
				s.l.WithError(err).WithField("clip", clip).Debug("no emotion suggestion")
			}
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Server) text(clip, source string) string {
	if s.opts.TextDir == "" {
		return ""
	}
	names := []string{clip}
	if source != "" {
		base := filepath.Base(source)
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	for _, n := range names {
		b, err := os.ReadFile(filepath.Join(s.opts.TextDir, n+".txt"))
		if err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return ""
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	items, err := s.Items(r.Context())
	if err != nil {
		s.l.WithError(err).Error("list clips")
		http.Error(w, "cannot list clips", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Items    []Item
		Emotions []string
	}{items, s.opts.Emotions}
	if err := s.page.Execute(w, data); err != nil {
		s.l.WithError(err).Error("render form")
	}
}

// submit mirrors the form contract: a vote without emotion or rating is
// dropped and the annotator is sent back to the form.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a := Annotation{
		ClipID:    strings.TrimSuffix(r.PostFormValue("media_name"), s.opts.ClipExt),
		Emotion:   r.PostFormValue("selected_emotion"),
		Annotator: r.PostFormValue("annotator_name"),
		Rating:    r.PostFormValue("emotion_rating"),
		Comment:   r.PostFormValue("comments"),
	}
	if err := a.Validate(); err != nil {
		s.l.WithError(err).Debug("incomplete vote ignored")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.Submit(r.Context(), a); err != nil {
		s.l.WithError(err).WithField("clip", a.ClipID).Error("record vote")
		http.Error(w, "could not record vote", http.StatusInternalServerError)
		return
	}
	s.l.WithFields(logrus.Fields{"clip": a.ClipID, "emotion": a.Emotion, "annotator": a.Annotator}).Info("vote recorded")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(lrw, r)
		s.l.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   lrw.code,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, l logrus.FieldLogger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		l.WithField("addr", addr).Info("annotation form listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return err
	}
	return nil
}

// naturalLess orders "video2" before "video10".
func naturalLess(a, b string) bool {
	pa, na := splitNumber(a)
	pb, nb := splitNumber(b)
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

func splitNumber(name string) (string, int) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(stem[i:])
	if err != nil {
		return stem, -1
	}
	return stem[:i], n
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Emotion annotation</title></head>
<body>
<h1>Emotion annotation</h1>
{{range .Items}}
<section>
  <h2>{{.Clip}}</h2>
  <video src="/media/{{.Media}}" controls width="480"></video>
  <p>{{if .Text}}{{.Text}}{{else}}Text not available for this media.{{end}}</p>
  <p>{{.Count}} annotation(s){{if .Annotators}} by {{range $i, $a := .Annotators}}{{if $i}}, {{end}}{{$a}}{{end}}{{end}}{{if .Majority}}; majority: {{.Majority}}{{end}}</p>
  {{if .Suggestion}}<p>Suggested: {{.Suggestion}}</p>{{end}}
  <form method="post" action="/submit">
    <input type="hidden" name="media_name" value="{{.Media}}">
    <label>Name <input name="annotator_name" required></label>
    <select name="selected_emotion">
      <option value="">emotion</option>
      {{range $.Emotions}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
    <select name="emotion_rating">
      <option value="">rating</option>
      <option>1</option><option>2</option><option>3</option><option>4</option><option>5</option>
    </select>
    <input name="comments" placeholder="comments">
    <button type="submit">Submit</button>
  </form>
</section>
{{else}}
<p>No clips to annotate.</p>
{{end}}
</body>
</html>
`
