// Package mseed reads and writes miniSEED 2 data records.
//
// Codec implements the detect/load/save capability the conversion pipeline
// depends on. Loading accepts integer, float and Steim-compressed records and
// merges contiguous records into traces. Saving produces fixed-length Steim1
// or Steim2 records with blockette 1000 and appends them to the file chosen by
// the caller's path mapper; appends to the same file are serialized inside the
// codec, so one Codec value may be shared by concurrent tasks.
package mseed
