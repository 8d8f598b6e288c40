package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/example/fieldbook/internal/auth"
	"github.com/example/fieldbook/internal/booking"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var fs embed.FS

type Server struct {
	Auth         *auth.Store
	Availability *booking.Availability
	Admission    *booking.Admission
	Clock        booking.Clock
	Location     *time.Location
	Log          *zap.Logger
}

type tmplData struct {
	Title string
	User  auth.User

	Flash     string
	FlashKind string // "success" or "danger"

	Days      []booking.DaySchedule
	OpenHour  int
	CloseHour int
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleIndex)))

	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderIndex(w, r, "", "")
	case http.MethodPost:
		s.handleBook(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, flash, kind string) {
	uid, _ := auth.UserIDFromContext(r.Context())
	user, err := s.Auth.GetUser(r.Context(), uid)
	if err != nil {
		s.Log.Error("load user", zap.Int64("user_id", uid), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	days, err := s.Availability.Schedule(r.Context(), s.Clock.Now())
	if err != nil {
		// A read failure must not render as an empty calendar.
		s.Log.Error("load availability", zap.Error(err))
		http.Error(w, "could not load availability", http.StatusServiceUnavailable)
		return
	}

	s.render(w, "templates/index.html", tmplData{
		Title:     "Field Booking",
		User:      user,
		Flash:     flash,
		FlashKind: kind,
		Days:      days,
		OpenHour:  s.Availability.OpenHour,
		CloseHour: s.Availability.CloseHour,
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := strings.TrimSpace(r.FormValue("date"))
	startHM := strings.TrimSpace(r.FormValue("start_time"))
	endHM := strings.TrimSpace(r.FormValue("end_time"))

	start, err1 := time.ParseInLocation("2006-01-02 15:04", date+" "+startHM, s.Location)
	end, err2 := time.ParseInLocation("2006-01-02 15:04", date+" "+endHM, s.Location)
	if err1 != nil || err2 != nil {
		s.renderIndex(w, r, "Invalid date or time.", "danger")
		return
	}

	s.Log.Info("booking attempt",
		zap.Int64("user_id", uid),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	id, err := s.Admission.Admit(r.Context(), uid, start, end)
	if err != nil {
		s.renderIndex(w, r, s.rejectionMessage(err), "danger")
		return
	}

	s.Log.Info("booking created", zap.Int64("user_id", uid), zap.Int64("booking_id", id))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) rejectionMessage(err error) string {
	switch {
	case errors.Is(err, booking.ErrInvalidRange):
		return "Start time must be before end time."
	case errors.Is(err, booking.ErrPastBooking):
		return "Booking is in the past."
	case errors.Is(err, booking.ErrTooLong):
		return fmt.Sprintf("Booking exceeds %s.", s.Admission.MaxSpan)
	case errors.Is(err, booking.ErrConflict):
		return "Already occupied."
	default:
		s.Log.Error("booking admission", zap.Error(err))
		return "Error saving booking. Please try again."
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), email, password)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				s.Log.Error("authenticate", zap.Error(err))
			}
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid email/password", FlashKind: "danger"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/register.html", tmplData{Title: "Register"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		firstName := strings.TrimSpace(r.FormValue("first_name"))
		lastName := strings.TrimSpace(r.FormValue("last_name"))
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if firstName == "" || lastName == "" || email == "" || password == "" {
			s.render(w, "templates/register.html", tmplData{Title: "Register", Flash: "All fields are required", FlashKind: "danger"})
			return
		}

		taken, err := s.Auth.EmailTaken(r.Context(), email)
		if err != nil {
			s.Log.Error("email lookup", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if taken {
			s.render(w, "templates/register.html", tmplData{Title: "Register", Flash: "Email already registered. Please log in.", FlashKind: "danger"})
			return
		}

		if err := s.Auth.CreateUser(r.Context(), firstName, lastName, email, password); err != nil {
			s.Log.Error("create user", zap.Error(err))
			s.render(w, "templates/register.html", tmplData{Title: "Register", Flash: "Error creating account", FlashKind: "danger"})
			return
		}
		s.Log.Info("user registered", zap.String("email", email))
		http.Redirect(w, r, "/login", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}
