package config

import "strconv"

const (
	uploadMaxFilesVar    = "UPLOAD_MAX_FILES"
	uploadMaxFileSizeVar = "UPLOAD_MAX_FILE_SIZE"
	uploadFolderVar      = "UPLOAD_FOLDER"

	defaultMaxFiles    = 10
	defaultMaxFileSize = 5 << 20 // 5 MiB
)

type UploadConfig interface {
	GetMaxUploadFiles() int
	GetMaxUploadFileSize() int64
	GetUploadFolder() string
}

type Upload struct {
	src *source
}

var _ UploadConfig = Upload{}

func (u Upload) GetMaxUploadFiles() int {
	n, err := strconv.Atoi(u.src.get(uploadMaxFilesVar, ""))
	if err != nil || n <= 0 {
		return defaultMaxFiles
	}
	return n
}

func (u Upload) GetMaxUploadFileSize() int64 {
	n, err := strconv.ParseInt(u.src.get(uploadMaxFileSizeVar, ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxFileSize
	}
	return n
}

func (u Upload) GetUploadFolder() string {
	return u.src.get(uploadFolderVar, EnvVars(u).dataPath("uploads"))
}
