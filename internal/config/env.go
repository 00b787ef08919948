package config

import "strings"

// envKeyReplacer maps nested keys to env names: server.url -> STACKS_SERVER_URL
var envKeyReplacer = strings.NewReplacer(".", "_")
