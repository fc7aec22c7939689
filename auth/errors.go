package auth

import (
	stderrors "errors"
	"strings"

	"google.golang.org/api/googleapi"
)

// Guidance printed for each fatal credential problem.  These mirror
// what gcloud expects the user to run.
const (
	noCredentialsGuidance = `Google Cloud credentials not found.
Please authenticate by running:
  gcloud auth application-default login --scopes=` + DriveScope + `,https://www.googleapis.com/auth/cloud-platform
Or provide a service account file using --gcs-service-account and --drive-service-account.`

	insufficientScopeGuidance = `Insufficient authentication scopes.
Your current credentials do not have access to Google Drive.
Please re-authenticate with the required scopes:
  gcloud auth application-default login --scopes=` + DriveScope + `,https://www.googleapis.com/auth/cloud-platform`

	projectGuidance = `The Google Cloud project ID could not be determined.
Please try running with --project <YOUR_PROJECT_ID>
Or set the quota project via:
  gcloud auth application-default set-quota-project <PROJECT_ID>`
)

// IsNoCredentials reports whether err means no usable credentials were
// found at all.
func IsNoCredentials(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "could not find default credentials")
}

// IsInsufficientScope reports whether err means the credentials are
// valid but lack the Drive scope.
func IsInsufficientScope(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if stderrors.As(err, &gerr) && gerr.Code == 403 {
		msg := strings.ToLower(gerr.Error())
		return strings.Contains(msg, "insufficient authentication scopes") ||
			strings.Contains(msg, "access_token_scope_insufficient")
	}
	return false
}

// IsProjectUndetermined reports whether err means the billing/quota
// project couldn't be inferred from the environment.
func IsProjectUndetermined(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not be determined") ||
		strings.Contains(msg, "quota project")
}

// Explain maps a fatal setup error to user guidance.
//
// Returns "" for errors that aren't a recognized credential problem.
// The checks are ordered from most to least specific.
func Explain(err error) string {
	switch {
	case err == nil:
		return ""
	case IsNoCredentials(err):
		return noCredentialsGuidance
	case IsInsufficientScope(err):
		return insufficientScopeGuidance
	case IsProjectUndetermined(err):
		return projectGuidance
	}
	return ""
}
