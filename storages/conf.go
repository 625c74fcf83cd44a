package storages

// Conf is loaded from config/.storages.json
type Conf struct {
	Media MediaConf `json:"media"`
}

type MediaConf struct {
	Type     string `json:"type"`      // "fs"
	Root     string `json:"root"`      // directory; relative paths are resolved against the app root
	BaseURL  string `json:"base_url"`  // public URL prefix of stored objects, e.g. "/media"
	MaxBytes int64  `json:"max_bytes"` // upload size limit, 0 = media.DefaultMaxBytes
}
