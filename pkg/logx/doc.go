// Package logx is robocmd's structured logger: a thin layer over zerolog
// whose sinks can be swapped by a config reload while loggers built from the
// Service keep writing.
package logx
