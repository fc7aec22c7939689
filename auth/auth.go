// Package auth acquires credentials for the two Google services and
// classifies the errors they produce into actionable guidance.
package auth

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// DriveScope is the OAuth scope needed to create folders and files.
const DriveScope = "https://www.googleapis.com/auth/drive"

// Config carries the credential choices made on the command line.
//
// It is built once at startup and passed down explicitly - there is no
// hidden global auth state.  Empty key file paths fall back to
// Application Default Credentials.
type Config struct {
	GCSServiceAccountFile   string
	DriveServiceAccountFile string
	Project                 string
}

// GCSOptions returns the client options for constructing the storage
// client.
func (c *Config) GCSOptions() []option.ClientOption {
	var opts []option.ClientOption
	if c.GCSServiceAccountFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.GCSServiceAccountFile))
	}
	if c.Project != "" {
		opts = append(opts, option.WithQuotaProject(c.Project))
	}
	return opts
}

// DriveTokenSource builds the token source for Drive access.
//
// The token source is safe to share - each worker builds its own
// service handle from it.
func (c *Config) DriveTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.DriveServiceAccountFile != "" {
		data, err := os.ReadFile(c.DriveServiceAccountFile)
		if err != nil {
			return nil, errors.Wrap(err, "error opening service account credentials file")
		}
		conf, err := google.JWTConfigFromJSON(data, DriveScope)
		if err != nil {
			return nil, errors.Wrap(err, "error processing credentials")
		}
		return conf.TokenSource(ctx), nil
	}
	creds, err := google.FindDefaultCredentials(ctx, DriveScope)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get Drive credentials")
	}
	return creds.TokenSource, nil
}

// DriveOptions returns the client options for constructing one Drive
// service handle from the shared token source.
func (c *Config) DriveOptions(ts oauth2.TokenSource) []option.ClientOption {
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if c.Project != "" {
		opts = append(opts, option.WithQuotaProject(c.Project))
	}
	return opts
}
