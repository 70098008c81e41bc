package handler

import "net/http"

// requiredPostForm はリクエストボディのフォームから指定フィールドの値を順に返す。
// いずれかのフィールドが存在しない場合はokがfalseになる。空文字列は存在として扱う。
// クエリ文字列の値は参照しない。
func requiredPostForm(r *http.Request, names ...string) (values []string, ok bool) {
	if err := r.ParseForm(); err != nil {
		return nil, false
	}

	values = make([]string, len(names))
	for i, name := range names {
		v, present := r.PostForm[name]
		if !present || len(v) == 0 {
			return nil, false
		}
		values[i] = v[0]
	}
	return values, true
}
