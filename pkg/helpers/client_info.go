package helpers

import "context"

// ClientInfo describes the client of the current request. It rides on the
// request context so notifications can mention where a login came from.
type ClientInfo struct {
	IP        string
	UserAgent string
	RequestID string
}

type clientInfoKey struct{}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
