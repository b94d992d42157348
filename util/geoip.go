package util

import (
	"net"
	"os"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

var (
	geoipDB    *geoip2.Reader
	geoipCache *cache.Cache
)

// InitGeoIP initializes the local GeoIP2 database reader and an in-memory
// lookup cache. Provide the path to a GeoIP2/GeoLite2 .mmdb file via dbPath
// or the GEOIP_DB_PATH env var. If neither is set, initialization is a no-op
// and GetIPLocation returns empty values.
func InitGeoIP(dbPath string) error {
	if dbPath == "" {
		dbPath = os.Getenv("GEOIP_DB_PATH")
	}
	if dbPath == "" {
		return nil
	}

	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoipDB = r
	geoipCache = cache.New(6*time.Hour, time.Hour)
	return nil
}

// CloseGeoIP releases the GeoIP database reader.
func CloseGeoIP() {
	if geoipDB != nil {
		_ = geoipDB.Close()
		geoipDB = nil
	}
}

type geoLocation struct {
	City    string
	Country string
}

// GetIPLocation resolves an IP to (city, country) best-effort. Lookups are
// cached; private, malformed, or unknown addresses return empty values.
func GetIPLocation(ip string) (string, string) {
	if geoipDB == nil || ip == "" {
		return "", ""
	}

	if geoipCache != nil {
		if v, ok := geoipCache.Get(ip); ok {
			if loc, ok := v.(geoLocation); ok {
				return loc.City, loc.Country
			}
		}
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", ""
	}

	rec, err := geoipDB.City(parsed)
	if err != nil {
		return "", ""
	}

	loc := geoLocation{
		City:    rec.City.Names["en"],
		Country: rec.Country.Names["en"],
	}
	if geoipCache != nil {
		geoipCache.Set(ip, loc, cache.DefaultExpiration)
	}
	return loc.City, loc.Country
}
