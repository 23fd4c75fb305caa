// Package logx wraps zerolog behind a small structured-logging API.
//
// It provides:
//   - a Logger value type with With()-derived fixed fields,
//   - Field helpers mirroring slog.Attr ergonomics without depending on slog,
//   - a Service whose sinks (console/file) and level can be swapped live on
//     config reload without invalidating existing loggers.
package logx
