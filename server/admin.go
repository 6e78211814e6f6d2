package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	adminCookie   = "admin_token"
	adminLoginURL = "/admin/login"
)

func (s *Server) adminRoutes(r *gin.Engine) {
	r.GET(adminLoginURL, func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})
	r.POST(adminLoginURL, s.adminLogin)
	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", s.secure, true)
		c.Redirect(http.StatusFound, adminLoginURL)
	})

	admin := r.Group("/admin")
	admin.Use(s.requireAdmin())

	admin.GET("/dashboard", s.adminDashboard)
	admin.GET("/visitors", s.adminVisitors)
	admin.GET("/submissions", s.adminSubmissions)
	admin.GET("/api/stats", s.adminStatsJSON)
	admin.GET("/export/stats", s.adminExport)
	admin.POST("/privacy/cleanup", s.adminCleanup)
}

func equalSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !equalSecret(token, s.adminToken) {
			c.Redirect(http.StatusFound, adminLoginURL)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) adminLogin(c *gin.Context) {
	// Both comparisons always run so timing does not reveal which one failed.
	userOK := equalSecret(c.PostForm("username"), s.adminUser)
	passOK := equalSecret(c.PostForm("password"), s.adminPass)
	if !userOK || !passOK {
		s.logger.Warn("failed admin login attempt", zap.String("client", s.store.HashIP(c.ClientIP())))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
		return
	}

	c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", s.secure, true)
	s.logger.Info("admin login successful")
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

func (s *Server) adminError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
		"title": "Admin Error",
		"error": msg,
	})
}

func (s *Server) adminDashboard(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.adminError(c, "Failed to load statistics", err)
		return
	}
	c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
		"title": "Dashboard",
		"stats": stats,
	})
}

func (s *Server) adminVisitors(c *gin.Context) {
	visitors, err := s.store.RecentVisitors(c.Request.Context(), 200)
	if err != nil {
		s.adminError(c, "Failed to load visitors", err)
		return
	}
	c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
		"title":    "Visitors",
		"visitors": visitors,
	})
}

func (s *Server) adminSubmissions(c *gin.Context) {
	subs, err := s.store.RecentSubmissions(c.Request.Context(), 200)
	if err != nil {
		s.adminError(c, "Failed to load submissions", err)
		return
	}
	c.HTML(http.StatusOK, "admin-submissions.html", gin.H{
		"title":       "Contact Submissions",
		"submissions": subs,
	})
}

func (s *Server) adminStatsJSON(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("error loading admin stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) adminExport(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("error exporting admin stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
	c.JSON(http.StatusOK, stats)
}

func (s *Server) adminCleanup(c *gin.Context) {
	n := s.cleanup(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message": "Privacy cleanup complete",
		"removed": n,
	})
}
