package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// 模块可选择实现其中一个或多个接口
type PublicModule interface{ MountPublic(*gin.RouterGroup) }
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 每个进程/测试各自一份，避免全局状态
type Registry struct {
	mu   sync.RWMutex
	mods []any
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register 统一注册入口；挂载时按类型断言分发
func (r *Registry) Register(mod any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mods = append(r.mods, mod)
}

func (r *Registry) sorted() []any {
	r.mu.RLock()
	mods := append([]any(nil), r.mods...)
	r.mu.RUnlock()
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	return mods
}

// MountPublic 无需登录的接口
func (r *Registry) MountPublic(g *gin.RouterGroup) {
	for _, m := range r.sorted() {
		if p, ok := m.(PublicModule); ok {
			p.MountPublic(g)
		}
	}
}

// MountAPI 在 /api/v1 鉴权分组上挂载
func (r *Registry) MountAPI(g *gin.RouterGroup) {
	for _, m := range r.sorted() {
		if p, ok := m.(APIModule); ok {
			p.MountAPI(g)
		}
	}
}

// MountAdmin 在 /admin/v1 上挂载
func (r *Registry) MountAdmin(g *gin.RouterGroup) {
	for _, m := range r.sorted() {
		if p, ok := m.(AdminModule); ok {
			p.MountAdmin(g)
		}
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
