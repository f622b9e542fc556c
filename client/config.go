package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/auth"
	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/creds"
	"github.com/spetersoncode/gemkit/replay"
	"github.com/spetersoncode/gemkit/retry"
	"github.com/spetersoncode/gemkit/transport"
	"golang.org/x/oauth2"
)

// Environment variables consulted when the corresponding Config field is unset.
const (
	EnvUseVertexAI      = "GOOGLE_GENAI_USE_VERTEXAI"
	EnvUseModelGarden   = "GOOGLE_GENAI_USE_MODELGARDEN"
	EnvProject          = "GOOGLE_CLOUD_PROJECT"
	EnvLocation         = "GOOGLE_CLOUD_LOCATION"
	EnvAPIKey           = "GOOGLE_API_KEY"
	EnvReplaysDirectory = "GOOGLE_GENAI_REPLAYS_DIRECTORY"
)

const (
	geminiBaseURL        = "https://generativelanguage.googleapis.com/"
	vertexGlobalBaseURL  = "https://aiplatform.googleapis.com/"
	vertexRegionalFormat = "https://%s-aiplatform.googleapis.com/"
	geminiAPIVersion     = "v1beta"
	vertexAPIVersion     = "v1beta1"
	modelGardenVersion   = "v1"
	locationGlobal       = "global"
)

// Config holds configuration for creating a client.
type Config struct {
	// Backend selects the personality. BackendUnspecified reads
	// GOOGLE_GENAI_USE_VERTEXAI ("true" or "1" selects Vertex AI).
	Backend gemkit.Backend

	// ModelGarden targets third-party models on Vertex AI. It forces the
	// Vertex AI backend and the v1 API. Falls back to
	// GOOGLE_GENAI_USE_MODELGARDEN.
	ModelGarden bool

	// APIKey authenticates against the Gemini API, or Vertex AI in express
	// mode. Falls back to GOOGLE_API_KEY.
	APIKey string

	// Credentials are explicit OAuth2 credentials for Vertex AI.
	Credentials *auth.Credentials

	// TokenSource is an alternative to Credentials.
	TokenSource oauth2.TokenSource

	// Project and Location address Vertex AI. They fall back to
	// GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_LOCATION.
	Project  string
	Location string

	// HTTPOptions are patched over the personality defaults.
	HTTPOptions gemkit.HTTPOptions

	// HTTPClient sends requests (default http.DefaultClient).
	HTTPClient transport.Doer

	// Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// PollConfig replaces the long-running operation polling schedule.
	PollConfig *RetryConfig

	// ReplayMode, when set, routes every request through a recorder.
	ReplayMode replay.Mode
	// ReplayID names the recording as module/function/backend.
	ReplayID string
	// ReplaysDirectory falls back to GOOGLE_GENAI_REPLAYS_DIRECTORY.
	ReplaysDirectory string

	// Getenv looks up environment variables (default os.Getenv).
	Getenv func(string) string

	// CredentialsLoader resolves application default credentials
	// (default creds.DetectDefault).
	CredentialsLoader creds.Loader
}

// settings is a Config with every rule applied.
type settings struct {
	backend     gemkit.Backend
	modelGarden bool
	apiKey      string
	project     string
	location    string
	creds       *creds.Manager
	httpOptions gemkit.HTTPOptions
	doer        transport.Doer
	recorder    *replay.Recorder
	pollConfig  retry.Config
	log         logrus.FieldLogger
}

func envFlag(getenv func(string) string, key string) bool {
	switch strings.ToLower(getenv(key)) {
	case "true", "1":
		return true
	}
	return false
}

// resolveConfig applies environment fallbacks, personality rules and
// credential precedence to cfg.
func resolveConfig(ctx context.Context, cfg Config) (*settings, error) {
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &settings{backend: cfg.Backend, log: log, pollConfig: retry.PollConfig()}
	if cfg.PollConfig != nil {
		s.pollConfig = *cfg.PollConfig
	}
	if s.backend == gemkit.BackendUnspecified {
		s.backend = gemkit.BackendGeminiAPI
		if envFlag(getenv, EnvUseVertexAI) {
			s.backend = gemkit.BackendVertexAI
		}
	}
	s.modelGarden = cfg.ModelGarden || envFlag(getenv, EnvUseModelGarden)
	if s.modelGarden {
		s.backend = gemkit.BackendVertexAI
	}

	explicitCreds := cfg.Credentials != nil || cfg.TokenSource != nil
	if (cfg.Project != "" || cfg.Location != "") && cfg.APIKey != "" {
		return nil, &gemkit.ConfigError{Field: "api_key", Msg: "Project/location and API key are mutually exclusive in the client initializer."}
	}
	if explicitCreds && cfg.APIKey != "" {
		return nil, &gemkit.ConfigError{Field: "credentials", Msg: "Credentials and API key are mutually exclusive in the client initializer."}
	}
	if cfg.Credentials != nil && cfg.TokenSource != nil {
		return nil, &gemkit.ConfigError{Field: "credentials", Msg: "Credentials and TokenSource are mutually exclusive in the client initializer."}
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	defaults := gemkit.HTTPOptions{Headers: headers}

	if s.backend.IsVertex() {
		if err := s.resolveVertex(ctx, cfg, getenv, &defaults); err != nil {
			return nil, err
		}
	} else {
		s.apiKey = cfg.APIKey
		if s.apiKey == "" {
			s.apiKey = getenv(EnvAPIKey)
		}
		if s.apiKey == "" {
			return nil, &gemkit.ConfigError{
				Field: "api_key",
				Msg:   "Missing key inputs argument! To use the Google AI API, provide (`api_key`) arguments. To use the Google Cloud API, provide (`vertexai`, `project` & `location`) arguments.",
			}
		}
		defaults.BaseURL = geminiBaseURL
		defaults.APIVersion = geminiAPIVersion
		s.creds = creds.NewAPIKey(s.apiKey).WithLogger(log)
	}

	if s.apiKey != "" {
		defaults.Headers.Set("X-Goog-Api-Key", s.apiKey)
	}
	s.httpOptions = gemkit.Patch(defaults, cfg.HTTPOptions)

	s.doer = cfg.HTTPClient
	if s.doer == nil {
		s.doer = http.DefaultClient
	}
	if cfg.ReplayMode != "" {
		dir := cfg.ReplaysDirectory
		if dir == "" {
			dir = getenv(EnvReplaysDirectory)
		}
		rec, err := replay.New(cfg.ReplayMode, cfg.ReplayID, dir, replay.WithNext(s.doer), replay.WithLogger(log))
		if err != nil {
			return nil, err
		}
		s.recorder = rec
		s.doer = rec
	}
	return s, nil
}

// resolveVertex applies the cloud rules: explicit arguments beat the
// environment, and credentials beat keys.
func (s *settings) resolveVertex(ctx context.Context, cfg Config, getenv func(string) string, defaults *gemkit.HTTPOptions) error {
	envProject := getenv(EnvProject)
	envLocation := getenv(EnvLocation)
	envKey := getenv(EnvAPIKey)
	explicitCreds := cfg.Credentials != nil || cfg.TokenSource != nil

	s.project, s.location, s.apiKey = cfg.Project, cfg.Location, cfg.APIKey
	switch {
	case explicitCreds:
		if s.apiKey == "" && envKey != "" {
			s.log.Info("The user provided Google Cloud credentials will take precedence over the API key from the environment variable.")
		}
		s.apiKey = ""
	case s.apiKey != "":
		if envProject != "" || envLocation != "" {
			s.log.Info("The user provided Vertex AI API key will take precedence over the project/location from the environment variables.")
		}
	case s.project != "" || s.location != "":
		if envKey != "" {
			s.log.Info("The user provided project/location will take precedence over the Vertex AI API key from the environment variable.")
		}
	case (envProject != "" || envLocation != "") && envKey != "":
		s.log.Info("The project/location from the environment variables will take precedence over the API key from the environment variables.")
	default:
		s.apiKey = envKey
	}
	if s.apiKey == "" {
		if s.project == "" {
			s.project = envProject
		}
		if s.location == "" {
			s.location = envLocation
		}
	}

	if s.apiKey != "" {
		s.creds = creds.NewAPIKey(s.apiKey).WithLogger(s.log)
	} else {
		var source *auth.Credentials
		switch {
		case cfg.Credentials != nil:
			source = cfg.Credentials
		case cfg.TokenSource != nil:
			source = creds.FromTokenSource(cfg.TokenSource, s.project)
		}
		s.creds = creds.NewOAuth2(source, cfg.CredentialsLoader).WithLogger(s.log)
		if s.project == "" {
			project, err := s.creds.Load(ctx)
			if err != nil {
				return err
			}
			s.project = project
		}
	}

	if !((s.project != "" && s.location != "") || s.apiKey != "") {
		return &gemkit.ConfigError{Field: "project", Msg: "Project and location or API key must be set when using the Vertex AI API."}
	}
	if s.apiKey != "" || s.location == locationGlobal {
		defaults.BaseURL = vertexGlobalBaseURL
	} else {
		defaults.BaseURL = fmt.Sprintf(vertexRegionalFormat, s.location)
	}
	defaults.APIVersion = vertexAPIVersion
	if s.modelGarden {
		if s.project == "" || s.location == "" {
			return &gemkit.ConfigError{Field: "project", Msg: "Project and location must be set when using ModelGarden models."}
		}
		defaults.APIVersion = modelGardenVersion
	}
	return nil
}
