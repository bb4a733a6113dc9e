package util

const (
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeHTML = "text/html; charset=utf-8"
)

// gin context keys set by the auth middleware
const (
	ContextUserKey = "user"
)
