package store

import "context"

func (s *Store) SetTyping(ctx context.Context, code, username string) error {
	return s.rdb.Set(ctx, typingKey(code, username), "1", typingTTL).Err()
}

func (s *Store) ClearTyping(ctx context.Context, code, username string) error {
	return s.rdb.Del(ctx, typingKey(code, username)).Err()
}

func (s *Store) IsTyping(ctx context.Context, code, username string) (bool, error) {
	n, err := s.rdb.Exists(ctx, typingKey(code, username)).Result()
	return n > 0, err
}
