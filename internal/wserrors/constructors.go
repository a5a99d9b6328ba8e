package wserrors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *WorkspaceError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file is invalid").
		WithContext("path", path)
}

func ConfigRequired(field string) *WorkspaceError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *WorkspaceError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Authorization errors

func AreaNotAllowed(area, user string) *WorkspaceError {
	return New(CategoryAuth, SeverityFatal, "you are not allowed to use the requested workspace area").
		WithContext("area", area).
		WithContext("user", user)
}

func NotOwner(workspace, user string) *WorkspaceError {
	return New(CategoryAuth, SeverityFatal, "you are not the owner of the workspace and have no access to it").
		WithContext("workspace", workspace).
		WithContext("user", user)
}

// Lifecycle state errors

func WorkspaceNotFound(name string) *WorkspaceError {
	return New(CategoryNotFound, SeverityFatal, "workspace does not exist").
		WithContext("workspace", name)
}

func RecordCorrupt(path string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryIO, SeverityFatal, "workspace record is corrupt").
		WithContext("path", path)
}

// Privilege errors

func ElevationFailed(capability string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryPrivilege, SeverityFatal, "could not acquire elevated rights").
		WithContext("capability", capability)
}

func DeElevationFailed(capability string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryPrivilege, SeverityFatal, "could not relinquish elevated rights").
		WithContext("capability", capability)
}

// Filesystem errors

func IOFailed(operation, path string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryIO, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

func MoveFailed(source, target string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryIO, SeverityFatal, "could not move workspace").
		WithContext("source", source).
		WithContext("target", target)
}

// Internal errors

func InternalError(message string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
