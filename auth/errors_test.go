package auth

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestIsNoCredentials(t *testing.T) {
	err := errors.New("google: could not find default credentials. See https://cloud.google.com/docs/authentication")
	assert.True(t, IsNoCredentials(err))
	assert.True(t, IsNoCredentials(errors.Wrap(err, "couldn't get Drive credentials")))
	assert.False(t, IsNoCredentials(errors.New("connection refused")))
	assert.False(t, IsNoCredentials(nil))
}

func TestIsInsufficientScope(t *testing.T) {
	scopeErr := &googleapi.Error{
		Code:    403,
		Message: "Request had insufficient authentication scopes.",
	}
	assert.True(t, IsInsufficientScope(scopeErr))
	assert.True(t, IsInsufficientScope(errors.Wrap(scopeErr, "couldn't list directory")))

	forbidden := &googleapi.Error{Code: 403, Message: "rate limit exceeded"}
	assert.False(t, IsInsufficientScope(forbidden))
	assert.False(t, IsInsufficientScope(errors.New("insufficient authentication scopes")))
	assert.False(t, IsInsufficientScope(nil))
}

func TestIsProjectUndetermined(t *testing.T) {
	err := errors.New("storage: project could not be determined from environment")
	assert.True(t, IsProjectUndetermined(err))
	assert.True(t, IsProjectUndetermined(errors.New("quota project is required")))
	assert.False(t, IsProjectUndetermined(errors.New("permission denied")))
}

func TestExplain(t *testing.T) {
	assert.Contains(t, Explain(errors.New("could not find default credentials")), "gcloud auth application-default login")
	assert.Contains(t, Explain(&googleapi.Error{Code: 403, Message: "insufficient authentication scopes"}), "Google Drive")
	assert.Contains(t, Explain(errors.New("project could not be determined")), "--project")
	assert.Equal(t, "", Explain(errors.New("some network error")))
	assert.Equal(t, "", Explain(nil))
}
