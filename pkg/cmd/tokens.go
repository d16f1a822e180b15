package cmd

import (
	"fmt"
	"strings"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/web"
)

// ParseTokens parses a provisioned token list of the form
// "token:user-id:name:role,token:user-id:name:role". Tokens are issued out
// of band; the API only resolves them.
func ParseTokens(spec string) (web.StaticTokens, error) {
	tokens := web.StaticTokens{}

	if strings.TrimSpace(spec) == "" {
		return tokens, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed token entry %q, want token:user-id:name:role", entry)
		}

		role := models.Role(parts[3])
		switch role {
		case models.RoleViewer, models.RoleOperator, models.RoleAdmin:
		default:
			return nil, fmt.Errorf("unknown role %q in token entry", parts[3])
		}

		tokens[parts[0]] = models.Principal{
			ID:   parts[1],
			Name: parts[2],
			Role: role,
		}
	}

	return tokens, nil
}
