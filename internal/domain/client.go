package domain

import "context"

// ClientInfo describes the caller of the current request for activity logging.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientKey struct{}

func WithClient(ctx context.Context, c ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the request's ClientInfo, or the zero value.
func ClientFromContext(ctx context.Context) ClientInfo {
	c, _ := ctx.Value(clientKey{}).(ClientInfo)
	return c
}
