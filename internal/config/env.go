package config

import "strings"

// LEARNHUB_HTTP_PORT -> http.port
var envKeyReplacer = strings.NewReplacer(".", "_")
