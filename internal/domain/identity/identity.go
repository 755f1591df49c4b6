package identity

import (
	"context"
)

// Mode 認証経路
type Mode string

const (
	ModeMachine   Mode = "machine"   // 共有シークレットによるマシンアクセス
	ModeDelegated Mode = "delegated" // 委任認可フローによるユーザーアクセス
)

// Identity リクエストの呼び出し元。リクエストごとに生成され永続化しない
type Identity struct {
	Login         string
	DisplayName   string
	Email         string
	AccessToken   string
	APIKey        string
	Authorization string
	Mode          Mode
}

// IsMachine マシン経路で認証されたか
func (i *Identity) IsMachine() bool {
	return i != nil && i.Mode == ModeMachine
}

type contextKey struct{}

// WithContext コンテキストに呼び出し元を設定
func WithContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext コンテキストから呼び出し元を取得
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}
