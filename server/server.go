// Package server serves the portfolio page, its HTMX contact form and the
// admin area.
package server

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/venkat210105/portfolio/contact"
	"github.com/venkat210105/portfolio/content"
	"github.com/venkat210105/portfolio/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Store is the persistence the server needs. *store.Store implements it.
type Store interface {
	Ping(ctx context.Context) error
	HashIP(ip string) string
	HashEmail(addr string) string
	RecordVisit(ctx context.Context, ip, userAgent, path string) error
	RecordSubmission(ctx context.Context, sub store.Submission) (store.Submission, error)
	RecentVisitors(ctx context.Context, limit int) ([]store.Visitor, error)
	RecentSubmissions(ctx context.Context, limit int) ([]store.Submission, error)
	Stats(ctx context.Context) (*store.Stats, error)
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

type Config struct {
	Profile        *content.Profile
	Store          Store
	Logger         *zap.Logger
	ContactBaseURL string
	// ContactClient overrides the HTTP client used to reach the relay.
	ContactClient contact.Doer
	AdminUsername string
	AdminPassword string
	// Mode is a gin mode; empty keeps the current one.
	Mode string
	// Retention is how long visitor rows are kept; used by the admin
	// cleanup action and RunCleanup.
	Retention time.Duration
}

type Server struct {
	engine     *gin.Engine
	profile    *content.Profile
	about      template.HTML
	store      Store
	logger     *zap.Logger
	tracker    *visitTracker
	contactURL string
	client     contact.Doer
	adminUser  string
	adminPass  string
	adminToken string
	retention  time.Duration
	secure     bool
}

// New validates the configuration and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Profile == nil {
		return nil, errors.New("server: profile is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, errors.New("server: admin credentials are required")
	}
	if _, err := contact.New(cfg.ContactBaseURL); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 365 * 24 * time.Hour
	}

	about, err := cfg.Profile.AboutHTML()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	s := &Server{
		profile:    cfg.Profile,
		about:      about,
		store:      cfg.Store,
		logger:     cfg.Logger,
		tracker:    &visitTracker{store: cfg.Store, logger: cfg.Logger},
		contactURL: cfg.ContactBaseURL,
		client:     cfg.ContactClient,
		adminUser:  cfg.AdminUsername,
		adminPass:  cfg.AdminPassword,
		adminToken: token,
		retention:  cfg.Retention,
		secure:     gin.Mode() == gin.ReleaseMode,
	}

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP handler for the whole site.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close waits for background visitor writes to finish.
func (s *Server) Close() {
	s.tracker.Wait()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate admin token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		// A Caser keeps state, so each call gets its own.
		"title": func(s string) string {
			return cases.Title(language.English).String(s)
		},
		"date": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

func (s *Server) routes() error {
	tmpl, err := parseTemplates()
	if err != nil {
		return err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to open static files: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(requestLogger(s.logger), recovery(s.logger), s.trackVisitors())

	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.home)
	r.GET("/contact-form", s.contactForm)
	r.POST("/contact", s.submitContact)
	r.GET("/healthz", s.health)

	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":     "Privacy Policy",
			"profile":   s.profile,
			"retention": retentionLabel(s.retention),
		})
	})

	s.adminRoutes(r)

	s.engine = r
	return nil
}

func (s *Server) home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"profile":  s.profile,
		"about":    s.about,
		"sections": content.Sections(),
		"contact":  contactView{},
	})
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunCleanup deletes expired visitor rows now and then every interval until
// ctx is canceled.
func (s *Server) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.cleanup(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Server) cleanup(ctx context.Context) int64 {
	n, err := s.store.Cleanup(ctx, s.retention)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("privacy cleanup failed", zap.Error(err))
		}
		return 0
	}
	if n > 0 {
		s.logger.Info("privacy cleanup removed visitor records",
			zap.Int64("rows", n),
			zap.Duration("retention", s.retention))
	}
	return n
}

func retentionLabel(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	switch {
	case days >= 365 && days%365 == 0:
		if days == 365 {
			return "12 months"
		}
		return fmt.Sprintf("%d years", days/365)
	case days >= 1:
		return fmt.Sprintf("%d days", days)
	default:
		return d.String()
	}
}
