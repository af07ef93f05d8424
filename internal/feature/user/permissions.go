package user

import (
	"sort"

	"ats-pipeline/internal/domain"
)

// DefaultPermissions 按角色给默认权限
func DefaultPermissions(role domain.Role) []string {
	switch role {
	case domain.RoleAdminHR:
		return append([]string(nil), domain.AllPermissions...)
	case domain.RoleInterviewer:
		return []string{domain.PermEditCandidates, domain.PermMoveCandidates}
	}
	return nil
}

func ValidRole(r domain.Role) bool {
	return r == domain.RoleAdminHR || r == domain.RoleInterviewer
}

// NormalizePermissions 去重、排序，遇到未知权限返回它
func NormalizePermissions(perms []string) ([]string, string) {
	known := make(map[string]bool, len(domain.AllPermissions))
	for _, p := range domain.AllPermissions {
		known[p] = true
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if !known[p] {
			return nil, p
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out, ""
}
