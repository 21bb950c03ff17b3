package catalogue

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	errs "cdli/pkg/errors"
)

// DefaultSecondFactor is sent when the caller has no second-factor code
const DefaultSecondFactor = "random_code_value"

// Login performs the credentials + second-factor handshake. The session is
// updated after every step. Redirects are never followed: the Location of
// the credentials response names the second-factor endpoint.
func (c *Client) Login(ctx context.Context, username, password, code string) error {
	loginURL := c.URL("login")
	log := c.logger.WithFields(map[string]interface{}{
		"username": username,
		"url":      loginURL,
	})

	if c.session.CSRFToken() == "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
		if err != nil {
			return fmt.Errorf("build login request: %w", err)
		}
		resp, err := c.do(c.authClient, req)
		if err != nil {
			return err
		}
		drain(resp)
	}

	resp, err := c.postForm(ctx, loginURL, [][2]string{
		{"username", username},
		{"password", password},
	})
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode >= 400 {
		log.WarnWithFields("login rejected", map[string]interface{}{"status": resp.StatusCode})
		return errs.Authentication("Login failed", resp.StatusCode)
	}

	next := loginURL
	if location := resp.Header.Get("Location"); location != "" {
		next = resolve(parseURL(loginURL), location)
	}

	if code == "" {
		code = DefaultSecondFactor
	}

	resp, err = c.postForm(ctx, next, [][2]string{{"code", code}})
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode >= 400 {
		log.WarnWithFields("second factor rejected", map[string]interface{}{"status": resp.StatusCode})
		return errs.Authentication("2FA failed", resp.StatusCode)
	}

	log.Info("logged in")
	return nil
}

// postForm POSTs fields, in order, as multipart/form-data
func (c *Client) postForm(ctx context.Context, target string, fields [][2]string) (*http.Response, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, field := range fields {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("encode form field %s: %w", field[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return nil, fmt.Errorf("build form request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return c.do(c.authClient, req)
}
