// Package upstream provides the HTTP plumbing shared by the provider
// adapters: posting a JSON payload to a backend, reading the reply, and
// mapping transport failures and non-2xx statuses to upstream_unavailable
// errors that keep their cause but never expose credentials.
package upstream
