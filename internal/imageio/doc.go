// Package imageio reads images into memory and writes rendered surfaces
// back out.
//
// # Acquisition
//
// Images come from files (through a caching Loader), from HTTP URLs
// (Fetcher) or from base64 strings and data URLs (DecodeBase64). All of
// them end in the same decoder, which registers PNG, JPEG, GIF, WebP, BMP
// and TIFF and applies EXIF orientation. Every acquisition failure wraps
// ErrImageLoad.
//
// # Export
//
// Encode produces PNG or JPEG through github.com/disintegration/imaging.
// JPEG quality is given on a 0..1 scale. WebP requests fall back to PNG and
// the returned Encoded reports the MIME type that was actually written.
// Export failures wrap ErrExport.
package imageio
