package model

// Identity はリクエスト元の利用者を表す。
// 実装は Authenticated と Anonymous のみで、型スイッチで判別する。
type Identity interface {
	isIdentity()
}

// Authenticated はログイン済みの利用者。
type Authenticated struct {
	User *User
}

// Anonymous は未ログインの利用者。ロールを持たない。
type Anonymous struct{}

func (Authenticated) isIdentity() {}
func (Anonymous) isIdentity()     {}

// IsSuper は利用者がSUPERロールのログインユーザーかどうかを返す。
// Userがnilの Authenticated はSUPERとして扱わない。
func IsSuper(id Identity) bool {
	switch v := id.(type) {
	case Authenticated:
		return v.User != nil && v.User.Role == RoleSuper
	default:
		return false
	}
}
