package graphics

func (d *Device) Queue() *DestroyQueue { return d.queue }

func (t *Texture) DestroyMessage() Destroy { return t.res.msg }

func (v *VertexArrayObject) Buffers() (vao, vbo, ibo uint32) { return v.vao, v.vbo, v.ibo }

func (b *SpriteBatch) VAO() *VertexArrayObject { return b.vao }
