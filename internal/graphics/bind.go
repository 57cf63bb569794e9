package graphics

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"

	"gers/internal/collections"
	"gers/internal/script"
)

// Script modules declared by this package.
const (
	Module     = "gers.graphics"
	MathModule = "gers.math"
)

var (
	//go:embed scripts/graphics.lua
	Source string
	//go:embed scripts/math.lua
	MathSource string
)

// Foreign class names.
const (
	DeviceClass      = "GraphicDevice"
	TextureClass     = "Texture"
	ShaderClass      = "Shader"
	VertexClass      = "Vertex"
	VertexArrayClass = "VertexArray"
	VAOClass         = "VertexArrayObject"
	TransformClass   = "Transform2D"
	BatchClass       = "SpriteBatch"
	FontClass        = "Font"
	Vector2Class     = "Vector2"
)

// VertexArray is the script-side vertex list.
type VertexArray = collections.List[Vertex]

// Register binds every graphics and math class on vm.
func Register(vm *script.VM) {
	m := vm.Module(Module)
	bindDevice(m.Class(DeviceClass))
	bindTexture(m.Class(TextureClass))
	bindShader(m.Class(ShaderClass))
	bindVertex(m.Class(VertexClass))
	bindVertexArray(m.Class(VertexArrayClass))
	bindVAO(m.Class(VAOClass))
	bindTransform(m.Class(TransformClass))
	bindSpriteBatch(m.Class(BatchClass))
	bindFont(m.Class(FontClass))

	bindVector2(vm.Module(MathModule).Class(Vector2Class))
}

// DeviceHooks are the pinned calls the engine makes on the script-owned
// device every frame.
type DeviceHooks struct {
	SetViewport *script.CallHandle
	Maintain    *script.CallHandle
}

// Release unpins both hooks.
func (h *DeviceHooks) Release() {
	h.SetViewport.Release()
	h.Maintain.Release()
}

// Install moves d into the script heap as GraphicDevice.instance, sets
// Shader.default and leaks the device hooks. Module must have been
// interpreted.
func Install(vm *script.VM, d *Device) (*DeviceHooks, error) {
	hooks := &DeviceHooks{}
	err := vm.Enter(func() error {
		inst, err := vm.NewInstance(Module, DeviceClass, d)
		if err != nil {
			return err
		}
		setInstance, err := vm.CallRef(Module, DeviceClass, "instance=(_)")
		if err != nil {
			return err
		}
		if _, err := setInstance.Call(inst); err != nil {
			return err
		}

		shader, err := NewSpriteShader(d)
		if err != nil {
			return fmt.Errorf("default shader: %w", err)
		}
		defaultShader, err := vm.NewInstance(Module, ShaderClass, shader)
		if err != nil {
			shader.Release()
			return err
		}
		setDefault, err := vm.CallRef(Module, ShaderClass, "default=(_)")
		if err != nil {
			shader.Release()
			return err
		}
		if _, err := setDefault.Call(defaultShader); err != nil {
			return err
		}

		getInstance, err := vm.CallRef(Module, DeviceClass, "instance")
		if err != nil {
			return err
		}
		for sig, dst := range map[string]**script.CallHandle{
			"setViewport_(_,_)": &hooks.SetViewport,
			"maintain()":        &hooks.Maintain,
		} {
			recv, err := getInstance.Call()
			if err != nil {
				return err
			}
			ref, err := vm.MakeCallRef(recv, script.MustParseSignature(sig))
			if err != nil {
				return err
			}
			if *dst, err = ref.Leak(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		hooks.Release()
		return nil, err
	}
	return hooks, nil
}

func borrowDevice(c *script.Context, i int) (*Device, func(), error) {
	return script.BorrowArg[*Device](c, i)
}

func floats(c *script.Context, from, n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		f, err := c.Float32(from + i)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func returnVec2(c *script.Context, v mgl32.Vec2) {
	c.ReturnNumber(float64(v.X()))
	c.ReturnNumber(float64(v.Y()))
}

func bindDevice(cb *script.ClassBuilder) {
	dev := func(c *script.Context) *Device { return c.Self().(*Device) }
	cb.MutMethod("setViewport_(_,_)", func(c *script.Context) error {
		w, err := c.Uint32(0)
		if err != nil {
			return err
		}
		h, err := c.Uint32(1)
		if err != nil {
			return err
		}
		dev(c).SetViewport(w, h)
		return nil
	})
	cb.Method("viewport()", func(c *script.Context) error {
		w, h := dev(c).Viewport()
		c.ReturnNumber(float64(w))
		c.ReturnNumber(float64(h))
		return nil
	})
	cb.Method("clearScreen(_,_,_,_)", func(c *script.Context) error {
		rgba, err := floats(c, 0, 4)
		if err != nil {
			return err
		}
		dev(c).Clear(mgl32.Vec4{rgba[0] / 255, rgba[1] / 255, rgba[2] / 255, rgba[3] / 255})
		return nil
	})
	draw := func(c *script.Context) error {
		vao, releaseVAO, err := script.BorrowArg[*VertexArrayObject](c, 0)
		if err != nil {
			return err
		}
		defer releaseVAO()
		tex, releaseTex, err := script.BorrowArg[*Texture](c, 1)
		if err != nil {
			return err
		}
		defer releaseTex()
		shader, releaseShader, err := script.BorrowArg[*Shader](c, 2)
		if err != nil {
			return err
		}
		defer releaseShader()
		t := Identity()
		if c.Arity() == 4 {
			tr, release, err := script.BorrowArg[*Transform2D](c, 3)
			if err != nil {
				return err
			}
			defer release()
			t = *tr
		}
		return dev(c).Draw(vao, tex, shader, t)
	}
	cb.Method("draw(_,_,_)", draw)
	cb.Method("draw(_,_,_,_)", draw)
	cb.Method("hasExtension(_)", func(c *script.Context) error {
		name, err := c.String(0)
		if err != nil {
			return err
		}
		c.ReturnBool(dev(c).HasExtension(name))
		return nil
	})
	cb.MutMethod("maintain()", func(c *script.Context) error {
		dev(c).Maintain()
		return nil
	})
	cb.Method("info()", func(c *script.Context) error {
		c.ReturnString(dev(c).Info().String())
		return nil
	})
}

func bindTexture(cb *script.ClassBuilder) {
	tex := func(c *script.Context) *Texture { return c.Self().(*Texture) }
	cb.Construct("new(_,_,_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		w, err := c.Uint32(1)
		if err != nil {
			return nil, err
		}
		h, err := c.Uint32(2)
		if err != nil {
			return nil, err
		}
		return NewTexture(d, w, h)
	})
	cb.Construct("fromFile(_,_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		path, err := c.String(1)
		if err != nil {
			return nil, err
		}
		return NewTextureFromFile(d, path)
	})
	cb.Construct("fromColor(_,_,_,_,_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		rgba, err := floats(c, 1, 4)
		if err != nil {
			return nil, err
		}
		return NewTextureFromColor(d, rgba[0], rgba[1], rgba[2], rgba[3])
	})
	cb.Method("sub(_,_,_,_)", func(c *script.Context) error {
		var r [4]uint32
		for i := range r {
			v, err := c.Uint32(i)
			if err != nil {
				return err
			}
			r[i] = v
		}
		sub, err := tex(c).Sub(Rect{X: r[0], Y: r[1], W: r[2], H: r[3]})
		if err != nil {
			return err
		}
		return c.ReturnInstance(Module, TextureClass, sub)
	})
	cb.MutMethod("updateData(_)", func(c *script.Context) error {
		data, release, err := script.BorrowArg[*collections.List[uint8]](c, 0)
		if err != nil {
			return err
		}
		defer release()
		return tex(c).UpdateData(data.Items())
	})
	cb.Method("width()", func(c *script.Context) error {
		c.ReturnNumber(float64(tex(c).Width()))
		return nil
	})
	cb.Method("height()", func(c *script.Context) error {
		c.ReturnNumber(float64(tex(c).Height()))
		return nil
	})
	cb.MutMethod("release()", func(c *script.Context) error {
		tex(c).Release()
		return nil
	})
}

func bindShader(cb *script.ClassBuilder) {
	cb.Construct("compile(_,_,_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		vs, err := c.String(1)
		if err != nil {
			return nil, err
		}
		fs, err := c.String(2)
		if err != nil {
			return nil, err
		}
		return NewShader(d, vs, fs)
	})
	cb.MutMethod("release()", func(c *script.Context) error {
		c.Self().(*Shader).Release()
		return nil
	})
}

func bindVertex(cb *script.ClassBuilder) {
	vertex := func(c *script.Context) *Vertex { return c.Self().(*Vertex) }
	cb.Construct("new(_,_,_,_)", func(c *script.Context) (any, error) {
		f, err := floats(c, 0, 4)
		if err != nil {
			return nil, err
		}
		return &Vertex{Position: mgl32.Vec2{f[0], f[1]}, UV: mgl32.Vec2{f[2], f[3]}, Color: White}, nil
	})
	cb.Construct("new(_,_,_,_,_,_,_,_)", func(c *script.Context) (any, error) {
		f, err := floats(c, 0, 8)
		if err != nil {
			return nil, err
		}
		return &Vertex{
			Position: mgl32.Vec2{f[0], f[1]},
			UV:       mgl32.Vec2{f[2], f[3]},
			Color:    mgl32.Vec4{f[4], f[5], f[6], f[7]},
		}, nil
	})
	cb.Method("pos()", func(c *script.Context) error {
		returnVec2(c, vertex(c).Position)
		return nil
	})
	cb.Method("uv()", func(c *script.Context) error {
		returnVec2(c, vertex(c).UV)
		return nil
	})
	cb.Method("color()", func(c *script.Context) error {
		for _, f := range vertex(c).Color {
			c.ReturnNumber(float64(f))
		}
		return nil
	})
	cb.MutMethod("setColor(_,_,_,_)", func(c *script.Context) error {
		f, err := floats(c, 0, 4)
		if err != nil {
			return err
		}
		vertex(c).Color = mgl32.Vec4{f[0], f[1], f[2], f[3]}
		return nil
	})
}

func bindVertexArray(cb *script.ClassBuilder) {
	list := func(c *script.Context) *VertexArray { return c.Self().(*VertexArray) }
	cb.Construct("new()", func(c *script.Context) (any, error) {
		return collections.NewList[Vertex](), nil
	})
	cb.MutMethod("add(_)", func(c *script.Context) error {
		v, release, err := script.BorrowArg[*Vertex](c, 0)
		if err != nil {
			return err
		}
		defer release()
		list(c).Add(*v)
		return nil
	})
	cb.Method("get(_)", func(c *script.Context) error {
		i, err := c.Int(0)
		if err != nil {
			return err
		}
		v, err := list(c).Get(i)
		if err != nil {
			return err
		}
		return c.ReturnInstance(Module, VertexClass, &v)
	})
	cb.Method("count()", func(c *script.Context) error {
		c.ReturnNumber(float64(list(c).Len()))
		return nil
	})
	cb.MutMethod("clear()", func(c *script.Context) error {
		list(c).Clear()
		return nil
	})
}

func parseUsage(c *script.Context, i int) (Usage, error) {
	freq, err := c.String(i)
	if err != nil {
		return Usage{}, err
	}
	nature, err := c.String(i + 1)
	if err != nil {
		return Usage{}, err
	}
	var u Usage
	switch freq {
	case "stream":
		u.Frequency = Stream
	case "static":
		u.Frequency = Static
	case "dynamic":
		u.Frequency = Dynamic
	default:
		return Usage{}, &script.ArgError{Method: VAOClass + ".new", Index: i, Want: "stream, static or dynamic", Got: freq}
	}
	switch nature {
	case "draw":
		u.Nature = Draw
	case "read":
		u.Nature = Read
	case "copy":
		u.Nature = Copy
	default:
		return Usage{}, &script.ArgError{Method: VAOClass + ".new", Index: i + 1, Want: "draw, read or copy", Got: nature}
	}
	return u, nil
}

func bindVAO(cb *script.ClassBuilder) {
	construct := func(c *script.Context) (any, error) {
		d, releaseDev, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer releaseDev()
		vertices, releaseVerts, err := script.BorrowArg[*VertexArray](c, 1)
		if err != nil {
			return nil, err
		}
		defer releaseVerts()
		indices, releaseIdx, err := script.BorrowArg[*collections.List[uint16]](c, 2)
		if err != nil {
			return nil, err
		}
		defer releaseIdx()
		usage := Usage{Frequency: Dynamic, Nature: Draw}
		if c.Arity() == 5 {
			if usage, err = parseUsage(c, 3); err != nil {
				return nil, err
			}
		}
		return NewVertexArrayObject(d, vertices.Items(), indices.Items(), usage)
	}
	cb.Construct("new(_,_,_)", construct)
	cb.Construct("new(_,_,_,_,_)", construct)
	cb.MutMethod("update(_,_)", func(c *script.Context) error {
		vertices, releaseVerts, err := script.BorrowArg[*VertexArray](c, 0)
		if err != nil {
			return err
		}
		defer releaseVerts()
		indices, releaseIdx, err := script.BorrowArg[*collections.List[uint16]](c, 1)
		if err != nil {
			return err
		}
		defer releaseIdx()
		return c.Self().(*VertexArrayObject).Update(vertices.Items(), indices.Items())
	})
	cb.Method("count()", func(c *script.Context) error {
		c.ReturnNumber(float64(c.Self().(*VertexArrayObject).Len()))
		return nil
	})
	cb.MutMethod("release()", func(c *script.Context) error {
		c.Self().(*VertexArrayObject).Release()
		return nil
	})
}

func bindTransform(cb *script.ClassBuilder) {
	tr := func(c *script.Context) *Transform2D { return c.Self().(*Transform2D) }
	cb.Construct("new()", func(c *script.Context) (any, error) {
		t := Identity()
		return &t, nil
	})
	cb.Construct("new(_,_)", func(c *script.Context) (any, error) {
		f, err := floats(c, 0, 2)
		if err != nil {
			return nil, err
		}
		t := Identity()
		t.Pos = mgl32.Vec2{f[0], f[1]}
		return &t, nil
	})
	vec := func(get func(*Transform2D) *mgl32.Vec2) (script.ForeignFn, script.ForeignFn) {
		getter := func(c *script.Context) error {
			returnVec2(c, *get(tr(c)))
			return nil
		}
		setter := func(c *script.Context) error {
			f, err := floats(c, 0, 2)
			if err != nil {
				return err
			}
			*get(tr(c)) = mgl32.Vec2{f[0], f[1]}
			return nil
		}
		return getter, setter
	}
	pos, setPos := vec(func(t *Transform2D) *mgl32.Vec2 { return &t.Pos })
	anchor, setAnchor := vec(func(t *Transform2D) *mgl32.Vec2 { return &t.Anchor })
	scale, setScale := vec(func(t *Transform2D) *mgl32.Vec2 { return &t.Scale })
	cb.Method("pos()", pos).MutMethod("setPos(_,_)", setPos)
	cb.Method("anchor()", anchor).MutMethod("setAnchor(_,_)", setAnchor)
	cb.Method("scale()", scale).MutMethod("setScale(_,_)", setScale)
	cb.Method("rotation()", func(c *script.Context) error {
		c.ReturnNumber(float64(tr(c).Rot))
		return nil
	})
	cb.MutMethod("setRotation(_)", func(c *script.Context) error {
		r, err := c.Float32(0)
		if err != nil {
			return err
		}
		tr(c).Rot = r
		return nil
	})
	cb.Method("apply(_,_)", func(c *script.Context) error {
		f, err := floats(c, 0, 2)
		if err != nil {
			return err
		}
		returnVec2(c, tr(c).Apply(mgl32.Vec2{f[0], f[1]}))
		return nil
	})
}

func bindSpriteBatch(cb *script.ClassBuilder) {
	batch := func(c *script.Context) *SpriteBatch { return c.Self().(*SpriteBatch) }
	cb.Construct("new(_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		return NewSpriteBatch(d)
	})
	// add takes x, y, w, h and a texture, then optionally a tint and a
	// transform. A nil texture is skipped.
	add := func(c *script.Context, color mgl32.Vec4, transformArg int) error {
		rect, err := floats(c, 0, 4)
		if err != nil {
			return err
		}
		if c.Arg(4) == lua.LNil {
			return nil
		}
		tex, releaseTex, err := script.BorrowArg[*Texture](c, 4)
		if err != nil {
			return err
		}
		defer releaseTex()
		t := Identity()
		if transformArg < c.Arity() {
			tr, release, err := script.BorrowArg[*Transform2D](c, transformArg)
			if err != nil {
				return err
			}
			defer release()
			t = *tr
		}
		batch(c).AddTinted(rect[0], rect[1], rect[2], rect[3], tex, color, t)
		return nil
	}
	cb.MutMethod("add(_,_,_,_,_)", func(c *script.Context) error { return add(c, White, 5) })
	cb.MutMethod("add(_,_,_,_,_,_)", func(c *script.Context) error { return add(c, White, 5) })
	cb.MutMethod("addTinted(_,_,_,_,_,_,_,_,_,_)", func(c *script.Context) error {
		rgba, err := floats(c, 5, 4)
		if err != nil {
			return err
		}
		return add(c, mgl32.Vec4{rgba[0], rgba[1], rgba[2], rgba[3]}, 9)
	})
	draw := func(c *script.Context) error {
		shader, release, err := script.BorrowArg[*Shader](c, 0)
		if err != nil {
			return err
		}
		defer release()
		t := Identity()
		if c.Arity() == 2 {
			tr, releaseTr, err := script.BorrowArg[*Transform2D](c, 1)
			if err != nil {
				return err
			}
			defer releaseTr()
			t = *tr
		}
		calls, err := batch(c).Draw(shader, t)
		if err != nil {
			return err
		}
		c.ReturnNumber(float64(calls))
		return nil
	}
	cb.MutMethod("draw(_)", draw)
	cb.MutMethod("draw(_,_)", draw)
	cb.Method("count()", func(c *script.Context) error {
		c.ReturnNumber(float64(batch(c).Len()))
		return nil
	})
	cb.MutMethod("clear()", func(c *script.Context) error {
		batch(c).Clear()
		return nil
	})
	cb.MutMethod("release()", func(c *script.Context) error {
		batch(c).Release()
		return nil
	})
}

func bindFont(cb *script.ClassBuilder) {
	fnt := func(c *script.Context) *Font { return c.Self().(*Font) }
	cb.Construct("new(_,_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		size, err := c.Number(1)
		if err != nil {
			return nil, err
		}
		return NewDefaultFont(d, size)
	})
	cb.Construct("fromFile(_,_,_)", func(c *script.Context) (any, error) {
		d, release, err := borrowDevice(c, 0)
		if err != nil {
			return nil, err
		}
		defer release()
		path, err := c.String(1)
		if err != nil {
			return nil, err
		}
		size, err := c.Number(2)
		if err != nil {
			return nil, err
		}
		return NewFontFromFile(d, path, size)
	})
	addText := func(c *script.Context) error {
		b, release, err := script.BorrowMutArg[*SpriteBatch](c, 0)
		if err != nil {
			return err
		}
		defer release()
		text, err := c.String(1)
		if err != nil {
			return err
		}
		pos, err := floats(c, 2, 2)
		if err != nil {
			return err
		}
		scale := float32(1)
		if c.Arity() == 5 {
			if scale, err = c.Float32(4); err != nil {
				return err
			}
		}
		fnt(c).AddText(b, text, pos[0], pos[1], scale, White, Identity())
		return nil
	}
	cb.Method("addText(_,_,_,_)", addText)
	cb.Method("addText(_,_,_,_,_)", addText)
	cb.Method("measure(_)", func(c *script.Context) error {
		text, err := c.String(0)
		if err != nil {
			return err
		}
		w, h := fnt(c).Measure(text, 1)
		c.ReturnNumber(float64(w))
		c.ReturnNumber(float64(h))
		return nil
	})
	cb.Method("lineHeight()", func(c *script.Context) error {
		c.ReturnNumber(float64(fnt(c).LineHeight()))
		return nil
	})
	cb.MutMethod("release()", func(c *script.Context) error {
		fnt(c).Release()
		return nil
	})
}

func bindVector2(cb *script.ClassBuilder) {
	vec := func(c *script.Context) *mgl32.Vec2 { return c.Self().(*mgl32.Vec2) }
	cb.Construct("new(_,_)", func(c *script.Context) (any, error) {
		f, err := floats(c, 0, 2)
		if err != nil {
			return nil, err
		}
		return &mgl32.Vec2{f[0], f[1]}, nil
	})
	cb.Construct("zero()", func(c *script.Context) (any, error) {
		return &mgl32.Vec2{}, nil
	})
	cb.Method("x()", func(c *script.Context) error {
		c.ReturnNumber(float64(vec(c).X()))
		return nil
	})
	cb.Method("y()", func(c *script.Context) error {
		c.ReturnNumber(float64(vec(c).Y()))
		return nil
	})
	cb.MutMethod("set(_,_)", func(c *script.Context) error {
		f, err := floats(c, 0, 2)
		if err != nil {
			return err
		}
		*vec(c) = mgl32.Vec2{f[0], f[1]}
		return nil
	})
	binary := func(op func(a, b mgl32.Vec2) mgl32.Vec2) script.ForeignFn {
		return func(c *script.Context) error {
			other, release, err := script.BorrowArg[*mgl32.Vec2](c, 0)
			if err != nil {
				return err
			}
			defer release()
			r := op(*vec(c), *other)
			return c.ReturnInstance(MathModule, Vector2Class, &r)
		}
	}
	cb.Method("add(_)", binary(mgl32.Vec2.Add))
	cb.Method("sub(_)", binary(mgl32.Vec2.Sub))
	cb.Method("scale(_)", func(c *script.Context) error {
		s, err := c.Float32(0)
		if err != nil {
			return err
		}
		r := vec(c).Mul(s)
		return c.ReturnInstance(MathModule, Vector2Class, &r)
	})
	cb.Method("length()", func(c *script.Context) error {
		c.ReturnNumber(float64(vec(c).Len()))
		return nil
	})
	cb.Method("normalize()", func(c *script.Context) error {
		v := *vec(c)
		if v.Len() > 0 {
			v = v.Normalize()
		}
		return c.ReturnInstance(MathModule, Vector2Class, &v)
	})
}
