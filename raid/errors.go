package raid

import "errors"

// サービス層のエラー。ハンドラー側でHTTPステータスに対応付ける
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")     // トークン不一致
	ErrForbidden        = errors.New("forbidden")        // ロール違反（master専用アクションなど）
	ErrRoomFull         = errors.New("room is full")     // 6人目以降の参加
	ErrRoomNotWaiting   = errors.New("room is not waiting")
	ErrNoTrainers       = errors.New("no trainers in room")
	ErrTrainersNotReady = errors.New("not all trainers are ready")
)
