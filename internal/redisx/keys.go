package redisx

import "time"

const (
	// Session record: session:{session_id} -> shop.Session JSON
	KeySession = "session:%s"

	// Sessions of one user: set user_sessions:{user_id} -> {session_id...}
	KeyUserSessions = "user_sessions:%s"

	// Product listing shared by all page views: catalog:products -> []shop.Product JSON
	KeyCatalog = "catalog:products"

	// Header badge: cart_count:{user_id} -> int
	KeyCartCount = "cart_count:%s"

	// Pending page banners: list flash:{session_id} -> flash JSON
	KeyFlash = "flash:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLFlash = time.Minute
	TTLDedup = 48 * time.Hour
)
