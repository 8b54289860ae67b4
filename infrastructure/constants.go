package infrastructure

import "time"

const (
	ContentTypeHeader   = "Content-Type"
	AuthorizationHeader = "Authorization"
	JSONContentType     = "application/json"
)

// DefinitionsFileField is the multipart field the Control-M deploy API reads definitions from
const DefinitionsFileField = "definitionsFile"

// DefinitionFileExtension is appended to definition filenames that lack it
const DefinitionFileExtension = ".json"

// RequestTimeout bounds every outbound call made by this project
const RequestTimeout = 30 * time.Second
