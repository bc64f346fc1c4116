package handlers

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"net/http"
	"strings"

	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/gin-gonic/gin"
)

// respondListsWithETag writes lists with a weak validator derived from their
// identity and modification times. Every write to a list or item bumps its
// updatedAt, and adding or removing an item changes the id set, so the
// validator moves whenever the body would.
func respondListsWithETag(ctx *gin.Context, payload interface{}, lists ...todo.List) {
	etag := listsETag(lists)

	ctx.Header("ETag", etag)
	// bodies are per user
	ctx.Header("Cache-Control", "private, no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(http.StatusOK, payload)
}

func listsETag(lists []todo.List) string {
	h := sha256.New()

	writeInt(h, int64(len(lists)))
	for _, l := range lists {
		writeInt(h, l.ID)
		writeInt(h, l.UpdatedAt.UnixNano())

		writeInt(h, int64(len(l.Items)))
		for _, it := range l.Items {
			writeInt(h, it.ID)
			writeInt(h, it.UpdatedAt.UnixNano())
		}
	}

	return `W/"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}

	return false
}
