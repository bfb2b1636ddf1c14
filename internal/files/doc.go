// Package files manages the input and output folders: discovery of meter
// export files, sanitized upload handling and directory bootstrap.
package files
