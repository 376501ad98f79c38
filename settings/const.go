package settings

const (
	// REMOTE_DEMO_ARCHIVE is the fallback basemap when nothing is cached
	// and no bundled archive is present.
	REMOTE_DEMO_ARCHIVE = "https://demo-bucket.protomaps.com/v4.pmtiles"

	// Well-known locations probed for a bundled archive.
	BUNDLED_ARCHIVE_PATH     = "basemap/local.pmtiles"
	BUNDLED_ARCHIVE_ALT_PATH = "/usr/share/fieldmapd/local.pmtiles"
)
