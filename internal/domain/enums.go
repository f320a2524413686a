package domain

// FileType represents the document kinds accepted for extraction.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// IsImage reports whether the file type is handled by the image OCR path.
func (t FileType) IsImage() bool {
	return t == FileTypeJPG || t == FileTypePNG
}

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// ErrorKind tags a failure that happened after pre-flight checks passed.
type ErrorKind string

const (
	KindExtractionFailure         ErrorKind = "extraction_failure"
	KindUnsupportedFormat         ErrorKind = "unsupported_format"
	KindInsufficientContent       ErrorKind = "insufficient_content"
	KindUpstreamError             ErrorKind = "upstream_error"
	KindMalformedUpstreamResponse ErrorKind = "malformed_upstream_response"
	KindInvalidJSON               ErrorKind = "invalid_json"
	KindSchemaValidation          ErrorKind = "schema_validation_error"
)
