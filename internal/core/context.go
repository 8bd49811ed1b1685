package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "job_client"

// Client identifies who submitted a job. It only feeds job logs.
type Client struct {
	IP        string
	UserAgent string
}

// WithClient attaches the submitting client to ctx.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the client stored by WithClient.
func ClientFromContext(ctx context.Context) (Client, bool) {
	c, ok := ctx.Value(ctxKeyClient).(Client)
	return c, ok
}
