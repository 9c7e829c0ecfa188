package utils

import "strings"

// MaskIdentity anonymizes the middle of a client identity (MAC address or
// IPv4 address) before it reaches the logs.
func MaskIdentity(id string) string {
	if id == "" {
		return ""
	}
	if strings.Contains(id, ":") {
		parts := strings.Split(id, ":")
		if len(parts) > 2 {
			for i := 1; i < len(parts)-1; i++ {
				if parts[i] != "" {
					parts[i] = "*"
				}
			}
			return strings.Join(parts, ":")
		}
		return id
	}
	parts := strings.Split(id, ".")
	if len(parts) == 4 {
		for i := 1; i < len(parts)-1; i++ {
			parts[i] = "*"
		}
		return strings.Join(parts, ".")
	}
	return id
}
