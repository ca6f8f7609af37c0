package server

import (
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"projectmanager/internal/auth"
	"projectmanager/internal/domain/errors"
)

const principalKey = "principalID"

// AuthRequired проверяет токен из заголовка Authorization и кладёт ID
// принципала в контекст запроса. Любой дефект токена — просроченный,
// повреждённый, с чужой подписью — означает 401; вид дефекта попадает
// только в лог.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Println("[WARN] Отклонён токен:", err)
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
			return
		}

		ctx.Set(principalKey, userID)
		ctx.Next()
	}
}

func principalID(ctx *gin.Context) string {
	return ctx.GetString(principalKey)
}

type gzipBody struct {
	io.Reader
	gz   io.Closer
	body io.Closer
}

func (b *gzipBody) Close() error {
	gzErr := b.gz.Close()
	bodyErr := b.body.Close()
	if gzErr != nil {
		return gzErr
	}
	return bodyErr
}

// GzipRequestDecompress прозрачно распаковывает тела запросов,
// присланные с Content-Encoding: gzip.
func GzipRequestDecompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		encoding := strings.ToLower(ctx.GetHeader("Content-Encoding"))
		if strings.Contains(encoding, "gzip") {
			gr, err := gzip.NewReader(ctx.Request.Body)
			if err != nil {
				ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidGzipRequest.Error()})
				return
			}

			ctx.Request.Body = &gzipBody{Reader: gr, gz: gr, body: ctx.Request.Body}
			ctx.Request.Header.Del("Content-Encoding")
			ctx.Request.Header.Del("Content-Length")
		}
		ctx.Next()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	gw      *gzip.Writer
	started bool
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	if !w.started {
		w.started = true
		if compressibleContentType(w.Header().Get("Content-Type")) {
			w.Header().Del("Content-Length")
			w.Header().Set("Content-Encoding", "gzip")
			w.gw = gzip.NewWriter(w.ResponseWriter)
		}
	}
	if w.gw != nil {
		return w.gw.Write(data)
	}
	return w.ResponseWriter.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) { return w.Write([]byte(s)) }

func (w *gzipWriter) Flush() {
	if w.gw != nil {
		_ = w.gw.Flush()
	}
	w.ResponseWriter.Flush()
}

// GzipResponseCompress сжимает ответы для клиентов, объявивших
// Accept-Encoding: gzip. Сжимаются только текстовые типы содержимого.
func GzipResponseCompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead {
			ctx.Next()
			return
		}
		if !strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		ctx.Writer.Header().Add("Vary", "Accept-Encoding")
		gw := &gzipWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = gw

		ctx.Next()

		if gw.gw != nil {
			if err := gw.gw.Close(); err != nil {
				_ = ctx.Error(errors.ErrGzipCompressionFailed)
			}
		}
	}
}

func compressibleContentType(ct string) bool {
	lower := strings.ToLower(ct)
	for _, prefix := range []string{
		"application/json",
		"application/xml",
		"text/html",
		"text/plain",
	} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
