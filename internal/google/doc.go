// Package google resolves Google API credentials for the calendar backend.
//
// Two credential sources are supported: a service account key file
// (GOOGLE_APPLICATION_CREDENTIALS) or an OAuth2 client ID, client secret and
// refresh token. The service account wins when both are configured.
package google
