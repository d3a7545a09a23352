package rbac

// Default policy.
var RolePermissions = map[string][]string{
	"student": {
		"attempt:clock",
		"attempt:submit",
		"attempt:view-own",
	},
	"teacher": {
		"attempt:view-own",
		"attempt:view-all",
		"content:load",
	},
	"admin": {
		"*", // everything
	},
}
