package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/asookemart/asooke-backend/api/validators"
	"github.com/asookemart/asooke-backend/internal/auth"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

const (
	accessCookieMaxAge  = 86400
	refreshCookieMaxAge = 604800

	pageHome           = "index.html"
	pageVerifyFailed   = "verified-email-failed.html"
	pageCheckoutOK     = "order-success.html"
	pageCheckoutFailed = "order-failed.html"
)

func redirectTo(w http.ResponseWriter, r *http.Request, app config.AppConfig, page string, query url.Values) {
	target := app.FrontendPage(page)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func verifyFailed(w http.ResponseWriter, r *http.Request, app config.AppConfig, email string, isLogin bool) {
	q := url.Values{}
	q.Set("email", email)
	if isLogin {
		q.Set("is_login", "true")
	} else {
		q.Set("is_login", "false")
	}
	redirectTo(w, r, app, pageVerifyFailed, q)
}

// AuthVerifyEmail is the target of the emailed verification link. The browser
// lands on the frontend with the new token pair in the query string.
func AuthVerifyEmail(svc auth.Service, app config.AppConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, _ := url.PathUnescape(chi.URLParam(r, "email"))
		if svc == nil {
			verifyFailed(w, r, app, email, false)
			return
		}

		userID, err := validators.ParseUUIDParam(r, "uid")
		if err != nil {
			verifyFailed(w, r, app, email, false)
			return
		}

		sess, err := svc.VerifyEmail(r.Context(), userID, chi.URLParam(r, "token"))
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithUserID(r.Context(), userID.String()), "auth.verify_email_failed: "+err.Error())
			}
			verifyFailed(w, r, app, email, false)
			return
		}

		q := url.Values{}
		q.Set("access", sess.AccessToken)
		q.Set("refresh", sess.RefreshToken)
		q.Set("email", sessionEmail(sess))
		q.Set("name", displayName(sess))
		q.Set("group", sess.Group)
		redirectTo(w, r, app, pageHome, q)
	}
}

// AuthMagicLogin signs the user in from an emailed link and hands the session
// to the frontend as cookies.
func AuthMagicLogin(svc auth.Service, app config.AppConfig, cookies config.MagicLinkConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			verifyFailed(w, r, app, "", true)
			return
		}

		sess, err := svc.MagicLogin(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "auth.magic_login_failed: "+err.Error())
			}
			verifyFailed(w, r, app, "", true)
			return
		}

		setSessionCookie(w, cookies, "access", sess.AccessToken, accessCookieMaxAge, true)
		setSessionCookie(w, cookies, "refresh", sess.RefreshToken, refreshCookieMaxAge, true)
		// readable by the frontend scripts
		setSessionCookie(w, cookies, "email", sessionEmail(sess), accessCookieMaxAge, false)
		setSessionCookie(w, cookies, "name", displayName(sess), accessCookieMaxAge, false)
		setSessionCookie(w, cookies, "group", sess.Group, accessCookieMaxAge, false)
		redirectTo(w, r, app, pageHome, nil)
	}
}

func setSessionCookie(w http.ResponseWriter, cfg config.MagicLinkConfig, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   maxAge,
		Secure:   cfg.CookieSecure,
		HttpOnly: httpOnly,
		SameSite: http.SameSiteLaxMode,
	})
}

func displayName(sess *auth.Session) string {
	if sess.User == nil {
		return ""
	}
	return strings.TrimSpace(sess.User.FirstName + " " + sess.User.LastName)
}

func sessionEmail(sess *auth.Session) string {
	if sess.User == nil {
		return ""
	}
	return sess.User.Email
}
