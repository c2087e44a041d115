package content

// DownloadRequest names one committed path to fetch.
type DownloadRequest struct {
	Path string `form:"path" binding:"required"`
}
