package tts

import "net/http"

// Provider tags as they appear in the catalog.
const (
	ProviderAcapela         = "acapela"
	ProviderBaidu           = "baidu"
	ProviderBing            = "bing"
	ProviderCepstral        = "cepstral"
	ProviderCereproc        = "cereproc"
	ProviderCobaltSpeech    = "cobaltspeech"
	ProviderGoogleTranslate = "googletranslate"
	ProviderNeospeechOld    = "neospeechold"
	ProviderOneCore         = "onecore"
	ProviderOneCoreTwo      = "onecoretwo"
	ProviderPollyTwo        = "pollytwo"
	ProviderReadAloud       = "readaloud"
	ProviderReadloud        = "readloud"
	ProviderSAPI4           = "sapi4"
	ProviderSvox            = "svox"
	ProviderTikTok          = "tiktok"
	ProviderVocalware       = "vocalware"
	ProviderWatson          = "watson"
)

const (
	browserUA  = "Mozilla/5.0"
	firefoxUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:107.0) Gecko/20100101 Firefox/107.0"
	chromeUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"
	xhrHeader  = "X-Requested-With"
	xhrValue   = "XMLHttpRequest"
	watsonHost = "https://tts-frontend.1poue1l648rk.us-east.codeengine.appdomain.cloud"
)

// Definition describes one provider protocol. Adding a provider means
// adding a Definition; the runner needs no changes.
type Definition struct {
	// Provider is the catalog tag.
	Provider string

	// Label prefixes provider error messages.
	Label string

	// Pattern is the protocol shape.
	Pattern Pattern

	// Native is the container the provider returns. FormatWAV output goes
	// through the converter.
	Native string

	// Rewrite runs the phoneme rewrite over the text first.
	Rewrite bool

	// Secret is the built-in credential, replaceable through WithSecrets.
	Secret string

	// Args is the number of catalog arguments required. Zero means one.
	Args int

	// Legs run in order; the last one yields the audio.
	Legs []Leg
}

func (d *Definition) argCount() int {
	if d.Args == 0 {
		return 1
	}
	return d.Args
}

// Definitions returns the built-in provider definitions. Each call returns
// a fresh copy.
func Definitions() []Definition {
	return []Definition{
		{
			Provider: ProviderAcapela,
			Label:    "Acapela cloud",
			Pattern:  PatternSingleGet,
			Native:   FormatMP3,
			Rewrite:  true,
			Secret:   "bd8b22e3e5ebbaa05ea0055aec4e16c357c29486",
			Legs: singleGet("https://acapela-cloud.com/api/command/",
				map[string]string{
					"Host":       "acapela-cloud.com",
					"User-Agent": firefoxUA,
					"Referer":    "https://www.acapela-group.com",
					"Origin":     "https://www.acapela-group.com",
				},
				"Acapela cloud error: %d. Token might be expired.",
				func(s *Session) params {
					return params{
						{"voice", s.Arg(0)},
						{"text", s.Text},
						{"output", "stream"},
						{"type", "mp3"},
						{"samplerate", "22050"},
						{"token", s.Secret},
					}
				}),
		},
		{
			Provider: ProviderBaidu,
			Label:    "Baidu",
			Pattern:  PatternSingleGet,
			Native:   FormatMP3,
			Legs: singleGet("https://fanyi.baidu.com/gettts",
				map[string]string{
					"User-Agent": browserUA,
					"Referer":    "https://fanyi.baidu.com",
				},
				"Baidu Error: %d",
				func(s *Session) params {
					return params{
						{"lan", s.Arg(0)},
						{"text", s.Text},
						{"spd", "5"},
						{"source", "web"},
					}
				}),
		},
		lazypy(ProviderBing, "Bing", "Bing Translator"),
		{
			Provider: ProviderCepstral,
			Label:    "Cepstral",
			Pattern:  PatternSession,
			Native:   FormatMP3,
			Legs: []Leg{
				{
					Name:          "session",
					URL:           fixedURL("https://www.cepstral.com/en/demos"),
					RequireCookie: true,
				},
				{
					Name: "create",
					URL: queryURL("https://www.cepstral.com/demos/createAudio.php", func(s *Session) params {
						return params{
							{"voiceText", s.Text},
							{"voice", s.Arg(0)},
							{"createTime", "666"},
							{"rate", "170"},
							{"pitch", "1"},
							{"sfx", "none"},
						}
					}),
					Header: map[string]string{
						"Referer": "https://www.cepstral.com",
						xhrHeader: xhrValue,
					},
					SendCookie: true,
					Extract: jsonField("mp3_loc",
						"Cepstral error: Invalid JSON response.",
						"Cepstral error: MP3 location not found in response."),
				},
				{
					Name: "audio",
					URL:  nextURL("https://www.cepstral.com"),
				},
			},
		},
		{
			Provider: ProviderCereproc,
			Label:    "Cereproc",
			Pattern:  PatternScrape,
			Native:   FormatWAV,
			Legs: []Leg{
				{
					Name:   "submit",
					Method: http.MethodPost,
					URL:    fixedURL("https://app.cereproc.com/live-demo?ajax_form=1&_wrapper_format=drupal_ajax"),
					Header: map[string]string{
						"Accept-Encoding": "gzip, deflate, br",
						"Origin":          "https://app.cereproc.com",
						"Referer":         "https://app.cereproc.com",
						xhrHeader:         xhrValue,
					},
					Body: formBody(func(s *Session) params {
						return params{
							{"text", s.Text},
							{"voice", s.Arg(0)},
							{"form_id", "live_demo_form"},
						}
					}),
					Brotli:  true,
					Extract: drupalAudioLink("Cereproc", "cerevoice.s3.amazonaws.com", ".wav"),
				},
				{
					Name: "audio",
					URL:  nextURL(""),
				},
			},
		},
		{
			Provider: ProviderCobaltSpeech,
			Label:    "Cobalt",
			Pattern:  PatternSingleGet,
			Native:   FormatWAV,
			Legs: singleGet("https://demo.cobaltspeech.com/voicegen/api/voicegen/v1/streaming-synthesize",
				map[string]string{"Accept": "*/*"},
				"",
				func(s *Session) params {
					return params{
						{"text.text", s.Text},
						{"config.model_id", s.Locale},
						{"config.speaker_id", s.Arg(0)},
						{"config.speech_rate", "1"},
						{"config.variation_scale", "0"},
						{"config.audio_format.codec", "AUDIO_CODEC_WAV"},
					}
				}),
		},
		{
			Provider: ProviderGoogleTranslate,
			Label:    "Google TTS",
			Pattern:  PatternSingleGet,
			Native:   FormatMP3,
			Legs: singleGet("https://translate.google.com/translate_tts", nil, "",
				func(s *Session) params {
					return params{
						{"ie", "UTF-8"},
						{"total", "1"},
						{"idx", "0"},
						{"client", "tw-ob"},
						{"q", s.Text},
						{"tl", s.Arg(0)},
					}
				}),
		},
		ispeech(ProviderNeospeechOld, "Neospeech (iSpeech)", "38fcab81215eb701f711df929b793a89"),
		readAloud(ProviderOneCore, "OneCore"),
		{
			Provider: ProviderOneCoreTwo,
			Label:    "VoiceRSS",
			Pattern:  PatternSingleGet,
			Native:   FormatMP3,
			Secret:   "83baa990727f47a89160431e874a8823",
			Legs: singleGet("https://api.voicerss.org/", nil, "",
				func(s *Session) params {
					return params{
						{"key", s.Secret},
						{"hl", s.Locale},
						{"c", "MP3"},
						{"f", "16khz_16bit_stereo"},
						{"v", s.Arg(0)},
						{"src", s.Text},
					}
				}),
		},
		{
			Provider: ProviderPollyTwo,
			Label:    "TTSMP3",
			Pattern:  PatternEnvelope,
			Native:   FormatMP3,
			Legs: []Leg{
				{
					Name:   "request",
					Method: http.MethodPost,
					URL:    fixedURL("https://ttsmp3.com/makemp3_new.php"),
					Body: formBody(func(s *Session) params {
						return params{
							{"msg", s.Text},
							{"lang", s.Arg(0)},
							{"source", "ttsmp3"},
						}
					}),
					Extract: pollyEnvelope,
				},
				{
					Name: "audio",
					URL:  nextURL(""),
				},
			},
		},
		readAloud(ProviderReadAloud, "ReadAloud"),
		{
			Provider: ProviderReadloud,
			Label:    "Readloud",
			Pattern:  PatternScrape,
			Native:   FormatMP3,
			Legs: []Leg{
				{
					Name:   "submit",
					Method: http.MethodPost,
					URL:    func(s *Session) string { return "https://readloud.net" + s.Arg(0) },
					Header: map[string]string{"User-Agent": browserUA},
					Body: formBody(func(s *Session) params {
						return params{
							{"but1", s.Text},
							{"butS", "0"},
							{"butP", "0"},
							{"butPauses", "0"},
							{"butt0", "Submit"},
						}
					}),
					Extract: scrapePath("Readloud", "/tmp/", ".mp3"),
				},
				{
					Name: "audio",
					URL:  nextURL("https://readloud.net"),
				},
			},
		},
		{
			Provider: ProviderSAPI4,
			Label:    "SAPI4",
			Pattern:  PatternSingleGet,
			Native:   FormatWAV,
			Legs: singleGet("https://www.tetyys.com/SAPI4/SAPI4",
				map[string]string{"Accept": "audio/wav"},
				"",
				func(s *Session) params {
					return params{
						{"text", s.Text},
						{"voice", s.Arg(0)},
					}
				}),
		},
		ispeech(ProviderSvox, "iSpeech", "ispeech-listenbutton-betauserkey"),
		lazypy(ProviderTikTok, "TikTok", "TikTok"),
		{
			Provider: ProviderVocalware,
			Label:    "Vocalware",
			Pattern:  PatternSingleGet,
			Native:   FormatMP3,
			Args:     3,
			Legs: singleGet("https://cache-a.oddcast.com/tts/genB.php",
				map[string]string{
					"Referer":    "https://www.oddcast.com/",
					"Origin":     "https://www.oddcast.com",
					"User-Agent": chromeUA,
					"Accept":     "*/*",
				},
				"Vocalware Error: %d",
				func(s *Session) params {
					return params{
						{"EID", s.Arg(0)},
						{"LID", s.Arg(1)},
						{"VID", s.Arg(2)},
						{"TXT", s.Text},
						{"EXT", "mp3"},
						{"FNAME", ""},
						{"ACC", "15679"},
						{"SceneID", "2703396"},
						{"HTTP_ERR", ""},
					}
				}),
		},
		watson(),
	}
}

// lazypy covers the voices proxied through lazypy.ro.
func lazypy(provider, label, service string) Definition {
	return Definition{
		Provider: provider,
		Label:    label,
		Pattern:  PatternEnvelope,
		Native:   FormatMP3,
		Legs: []Leg{
			{
				Name:   "request",
				Method: http.MethodPost,
				URL:    fixedURL("https://lazypy.ro/tts/request_tts.php"),
				Body: formBody(func(s *Session) params {
					return params{
						{"text", s.Text},
						{"voice", s.Arg(0)},
						{"service", service},
					}
				}),
				Extract:    lazypyEnvelope(label),
				StatusText: label + " proxy error: %d",
			},
			{
				Name:       "audio",
				URL:        nextURL(""),
				StatusText: label + " audio download error: %d",
			},
		},
	}
}

// ispeech covers the iSpeech REST endpoint, which differs only by key.
func ispeech(provider, label, apiKey string) Definition {
	return Definition{
		Provider: provider,
		Label:    label,
		Pattern:  PatternSingleGet,
		Native:   FormatMP3,
		Secret:   apiKey,
		Legs: singleGet("https://api.ispeech.org/api/rest", nil, "",
			func(s *Session) params {
				return params{
					{"speed", "0"},
					{"apikey", s.Secret},
					{"text", s.Text},
					{"action", "convert"},
					{"voice", s.Arg(0)},
					{"format", "mp3"},
					{"e", "audio.mp3"},
				}
			}),
	}
}

type readAloudPart struct {
	VoiceID string `json:"voiceId"`
	SSML    string `json:"ssml"`
}

// readAloud covers the two catalogs served by the ReadAloud part store.
func readAloud(provider, label string) Definition {
	return Definition{
		Provider: provider,
		Label:    label,
		Pattern:  PatternEnvelope,
		Native:   FormatMP3,
		Legs: []Leg{
			{
				Name:   "create",
				Method: http.MethodPost,
				URL:    fixedURL("https://support.readaloud.app/ttstool/createParts"),
				Body: jsonRequestBody(func(s *Session) any {
					return []readAloudPart{{
						VoiceID: s.Arg(0),
						SSML:    `<speak version="1.0" xml:lang="` + s.Locale + `">` + s.Text + `</speak>`,
					}}
				}),
				Extract: firstPart(label),
			},
			{
				Name: "audio",
				URL: func(s *Session) string {
					return "https://support.readaloud.app/ttstool/getParts?q=" + formEscape(s.Next)
				},
				Header: map[string]string{"Accept": "audio/mp3"},
			},
		},
	}
}

func watson() Definition {
	header := map[string]string{
		"Origin":  "https://www.ibm.com",
		"Referer": "https://www.ibm.com/",
	}
	return Definition{
		Provider: ProviderWatson,
		Label:    "Watson",
		Pattern:  PatternSession,
		Native:   FormatMP3,
		Legs: []Leg{
			{
				Name:   "session",
				Method: http.MethodPost,
				URL:    fixedURL(watsonHost + "/api/tts/session"),
				Header: header,
			},
			{
				Name:   "store",
				Method: http.MethodPost,
				URL:    fixedURL(watsonHost + "/api/tts/store"),
				Header: header,
				Body: jsonRequestBody(func(s *Session) any {
					return struct {
						SessionID string `json:"sessionID"`
						Text      string `json:"text"`
					}{s.CorrelationID, s.Text}
				}),
				SendCookie: true,
			},
			{
				Name: "synthesize",
				URL: queryURL(watsonHost+"/api/tts/newSynthesizer", func(s *Session) params {
					return params{
						{"voice", s.Arg(0)},
						{"rate_percentage", "0"},
						{"pitch_percentage", "0"},
						{"id", s.CorrelationID},
					}
				}),
				Header:     header,
				SendCookie: true,
			},
		},
	}
}
