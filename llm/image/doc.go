// Package image provides the image-captioning capability used at ingestion
// time (captioning raster images in the document corpus) and at request
// time (describing an image attached to a chat message).
package image
