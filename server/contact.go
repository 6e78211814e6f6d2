package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/venkat210105/portfolio/contact"
	"github.com/venkat210105/portfolio/store"
)

// SuccessMessage is shown when the relay confirms without a message of its own.
const SuccessMessage = "Message sent successfully! I'll get back to you soon."

// contactView is the data behind the contact form fragment.
type contactView struct {
	Form  contact.Form
	Error string
}

func (s *Server) contactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact-form.html", contactView{})
}

// submitContact drives one contact.Controller per request. HTML clients get
// an HTMX fragment, JSON clients the submission result.
func (s *Server) submitContact(c *gin.Context) {
	wantsJSON := c.ContentType() == gin.MIMEJSON

	var form contact.Form
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Warn("invalid contact request", zap.Error(err))
		if wantsJSON {
			c.JSON(http.StatusBadRequest, contact.Result{Error: "invalid request body"})
			return
		}
		c.HTML(http.StatusOK, "contact-form.html", contactView{Error: contact.DefaultFailureMessage})
		return
	}

	ctrl, err := contact.New(s.contactURL,
		contact.WithHTTPClient(s.client),
		contact.WithLogger(s.logger),
		contact.WithObserver(s.recordSubmission),
	)
	if err != nil {
		// The URL was validated in New, so this only fires on a broken setup.
		s.logger.Error("contact controller unavailable", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	for _, field := range contact.Fields {
		if err := ctrl.SetField(field, form.Get(field)); err != nil {
			s.logger.Error("contact field rejected", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}

	res := ctrl.Submit(c.Request.Context())

	if wantsJSON {
		c.JSON(resultStatus(ctrl.Status(), res), res)
		return
	}

	switch st := ctrl.Status().(type) {
	case contact.Success:
		msg := st.Message
		if msg == "" {
			msg = SuccessMessage
		}
		c.HTML(http.StatusOK, "contact-success.html", gin.H{"success": msg})
	case contact.Failure:
		c.HTML(http.StatusOK, "contact-form.html", contactView{Form: ctrl.Form(), Error: st.Reason})
	case contact.Idle:
		s.logger.Error("contact submission finished without a status")
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func resultStatus(st contact.Status, res contact.Result) int {
	if res.Success {
		return http.StatusOK
	}
	if f, ok := st.(contact.Failure); ok && f.Reason == contact.InvalidEmailMessage {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// recordSubmission logs the outcome without the message body or the raw
// address.
func (s *Server) recordSubmission(ctx context.Context, form contact.Form, res contact.Result, err error) {
	sub := store.Submission{
		Subject:     form.Subject,
		HashedEmail: s.store.HashEmail(form.Email),
		Outcome:     store.OutcomeSuccess,
		Detail:      res.Message,
	}
	if err != nil {
		sub.Outcome = store.OutcomeError
		sub.Detail = res.Error
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			sub.Outcome = store.OutcomeInvalid
		}
	}

	if _, err := s.store.RecordSubmission(context.WithoutCancel(ctx), sub); err != nil {
		s.logger.Error("error recording contact submission", zap.Error(err))
	}
}
