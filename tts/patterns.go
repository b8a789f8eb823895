package tts

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Pattern names the protocol shape of a provider.
type Pattern string

const (
	// PatternSingleGet issues one GET and streams the body.
	PatternSingleGet Pattern = "single_get"

	// PatternEnvelope posts the text, reads a JSON envelope and fetches the
	// audio it points to.
	PatternEnvelope Pattern = "envelope"

	// PatternSession bootstraps a cookie before submitting and fetching.
	PatternSession Pattern = "session"

	// PatternScrape slices the audio location out of HTML or a decoded blob.
	PatternScrape Pattern = "scrape"
)

func fixedURL(u string) func(*Session) string {
	return func(*Session) string { return u }
}

func queryURL(base string, query func(s *Session) params) func(*Session) string {
	return func(s *Session) string {
		return base + "?" + query(s).encode()
	}
}

// nextURL fetches whatever the previous leg extracted, optionally under a
// fixed prefix.
func nextURL(prefix string) func(*Session) string {
	return func(s *Session) string { return prefix + s.Next }
}

func formBody(fields func(s *Session) params) func(*Session) (string, []byte, error) {
	return func(s *Session) (string, []byte, error) {
		return contentTypeForm, []byte(fields(s).encode()), nil
	}
}

func jsonRequestBody(value func(s *Session) any) func(*Session) (string, []byte, error) {
	return func(s *Session) (string, []byte, error) {
		data, err := jsonBody(value(s))
		return contentTypeJSON, data, err
	}
}

// singleGet is a one-leg chain.
func singleGet(base string, header map[string]string, statusText string, query func(s *Session) params) []Leg {
	return []Leg{{
		Name:       "synthesize",
		URL:        queryURL(base, query),
		Header:     header,
		StatusText: statusText,
	}}
}

// lazypyEnvelope reads {"success": true, "audio_url": "..."} replies.
func lazypyEnvelope(label string) func([]byte, *Session) error {
	return func(body []byte, s *Session) error {
		var env struct {
			Success  any    `json:"success"`
			ErrorMsg any    `json:"error_msg"`
			AudioURL string `json:"audio_url"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return malformedf("%s proxy error: Invalid JSON response from lazypy", label)
		}
		if ok, _ := env.Success.(bool); !ok {
			msg, _ := env.ErrorMsg.(string)
			if msg == "" {
				msg = "Unknown error"
			}
			return rejected(label + " proxy error: " + msg)
		}
		if env.AudioURL == "" {
			return malformedf("%s proxy error: audio_url missing from lazypy response", label)
		}
		s.Next = env.AudioURL
		return nil
	}
}

// pollyEnvelope reads {"Error": 0, "URL": "..."} replies and upgrades the
// audio URL to https.
func pollyEnvelope(body []byte, s *Session) error {
	var env struct {
		Error any    `json:"Error"`
		Text  string `json:"Text"`
		URL   string `json:"URL"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return malformedf("Invalid JSON from ttsmp3.com")
	}
	if code, ok := env.Error.(float64); ok && code == 1 {
		msg := env.Text
		if msg == "" {
			msg = "Unknown error"
		}
		return rejected(msg)
	}
	if env.URL == "" {
		return malformedf("Invalid JSON from ttsmp3.com")
	}
	u := env.URL
	if !strings.HasPrefix(u, "https") {
		u = strings.Replace(u, "http", "https", 1)
	}
	s.Next = u
	return nil
}

// firstPart reads the part id from a ["id", ...] reply.
func firstPart(label string) func([]byte, *Session) error {
	return func(body []byte, s *Session) error {
		var parts []any
		if err := json.Unmarshal(body, &parts); err != nil {
			return malformedf("%s error: Invalid JSON response", label)
		}
		var id string
		if len(parts) > 0 {
			switch v := parts[0].(type) {
			case string:
				id = v
			case float64:
				if v != 0 {
					id = strconv.FormatFloat(v, 'f', -1, 64)
				}
			}
		}
		if id == "" {
			return malformedf("%s error: No part ID received", label)
		}
		s.Next = id
		return nil
	}
}

// jsonField stores a string field of a JSON object.
func jsonField(field, invalidMsg, missingMsg string) func([]byte, *Session) error {
	return func(body []byte, s *Session) error {
		var obj map[string]any
		if err := json.Unmarshal(body, &obj); err != nil {
			return malformedf("%s", invalidMsg)
		}
		v, _ := obj[field].(string)
		if v == "" {
			return malformedf("%s", missingMsg)
		}
		s.Next = v
		return nil
	}
}

// scrapePath slices text from the first begin marker through the first end
// marker after it, inclusive.
func scrapePath(label, begin, end string) func([]byte, *Session) error {
	return func(body []byte, s *Session) error {
		html := string(body)
		i := strings.Index(html, begin)
		if i < 0 {
			return malformedf("%s error: MP3 link not found in HTML", label)
		}
		j := strings.Index(html[i:], end)
		if j < 0 {
			return malformedf("%s error: MP3 link not found in HTML", label)
		}
		path := strings.TrimSpace(html[i : i+j+len(end)])
		if path == "" {
			return malformedf("%s error: Empty MP3 path", label)
		}
		s.Next = path
		return nil
	}
}

// drupalAudioLink finds the AJAX command whose data mentions host and
// slices the URL from its first "https://" through its last ext.
func drupalAudioLink(label, host, ext string) func([]byte, *Session) error {
	return func(body []byte, s *Session) error {
		var commands []map[string]any
		if err := json.Unmarshal(body, &commands); err != nil {
			return &SynthesisError{Kind: ErrMalformedResponse, Message: label + " JSON error: " + err.Error(), Cause: err}
		}
		for _, cmd := range commands {
			data, ok := cmd["data"].(string)
			if !ok || !strings.Contains(data, host) {
				continue
			}
			i := strings.Index(data, "https://")
			j := strings.LastIndex(data, ext)
			if i < 0 || j < i {
				break
			}
			s.Next = data[i : j+len(ext)]
			return nil
		}
		return malformedf("%s: No audio link found.", label)
	}
}
