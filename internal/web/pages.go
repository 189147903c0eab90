package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/lang"
	"github.com/abhisek/coursekit/internal/progress"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	md        = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

type weekSummary struct {
	ID      int
	Title   string
	Topics  int
	Percent int
}

type courseSummary struct {
	ID    string
	Title string
	Weeks []weekSummary
}

type indexData struct {
	Courses []courseSummary
}

type topicView struct {
	Title    string
	TitleHI  string
	BodyEN   template.HTML
	BodyHI   template.HTML
	Done     bool
	VideoURL string
	Score    *progress.QuizScore
	Quiz     *course.Quiz
}

type dayView struct {
	ID     int
	Title  string
	Topics []topicView
}

type weekData struct {
	CourseID    string
	CourseTitle string
	Week        int
	Title       string
	Lang        string
	Percent     int
	Days        []dayView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data indexData
	for _, c := range s.courses {
		cs := courseSummary{ID: c.ID, Title: c.Title}
		for _, wk := range c.Weeks {
			total := wk.TopicCount()
			cs.Weeks = append(cs.Weeks, weekSummary{
				ID:      wk.ID,
				Title:   wk.Title,
				Topics:  total,
				Percent: s.weekPercent(ctx, c.ID, wk.ID, total),
			})
		}
		data.Courses = append(data.Courses, cs)
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	c, wk, ok := s.resolveWeek(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	ledger := s.ledger(ctx)

	data := weekData{
		CourseID:    c.ID,
		CourseTitle: c.Title,
		Week:        wk.ID,
		Title:       wk.Title,
		Lang:        lang.Normalize(r.URL.Query().Get("lang")),
		Percent:     s.weekPercent(ctx, c.ID, wk.ID, wk.TopicCount()),
	}
	for _, d := range wk.Days {
		dv := dayView{ID: d.ID, Title: d.Title}
		for i := range d.Topics {
			t := &d.Topics[i]
			tv := topicView{
				Title:   t.DisplayTitle(lang.English),
				TitleHI: t.TitleHI,
				Quiz:    t.Quiz,
			}
			var err error
			if tv.BodyEN, err = markdown(t.BodyEN); err != nil {
				s.logger.Printf("web: render %s topic %d: %v", c.ID, t.ID, err)
			}
			if tv.BodyHI, err = markdown(t.BodyHI); err != nil {
				s.logger.Printf("web: render %s topic %d hi: %v", c.ID, t.ID, err)
			}
			if t.Video != nil {
				tv.VideoURL = t.Video.URL
			}
			if _, done := ledger[progress.TopicKey(c.ID, wk.ID, d.ID, t.ID)]; done {
				tv.Done = true
			}
			if rec, ok := ledger[progress.QuizKey(c.ID, wk.ID, d.ID, t.ID)]; ok && rec.QuizScore != nil {
				score := *rec.QuizScore
				tv.Score = &score
			}
			dv.Topics = append(dv.Topics, tv)
		}
		data.Days = append(data.Days, dv)
	}
	s.render(w, "week.html", data)
}

func (s *Server) resolveWeek(w http.ResponseWriter, r *http.Request) (*course.Course, *course.Week, bool) {
	c, ok := s.course(chi.URLParam(r, "course"))
	if !ok {
		http.Error(w, "course not found", http.StatusNotFound)
		return nil, nil, false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		http.Error(w, "invalid week", http.StatusBadRequest)
		return nil, nil, false
	}
	wk, ok := c.Week(id)
	if !ok {
		http.Error(w, "week not found", http.StatusNotFound)
		return nil, nil, false
	}
	return c, wk, true
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Printf("web: template %s: %v", name, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) ledger(ctx context.Context) progress.Ledger {
	if s.tracker == nil {
		return progress.Ledger{}
	}
	return s.tracker.Get(ctx)
}

func (s *Server) weekPercent(ctx context.Context, courseID string, week, total int) int {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.WeekProgress(ctx, courseID, week, total)
}

// markdown renders course markdown. Raw HTML in the source is escaped.
func markdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
