// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types persisted by the storage layer.
// Timestamps are stored as Unix microseconds.
var (
	IDMUS       = idSer{}
	DocumentMUS = documentSer{}
	ChunkMUS    = chunkSer{}

	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
)

var (
	_ mus.Serializer[ID]       = IDMUS
	_ mus.Serializer[Document] = DocumentMUS
	_ mus.Serializer[Chunk]    = ChunkMUS
)

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (idSer) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type documentSer struct{}

func (documentSer) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Name, bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += raw.Int64.Marshal(d.InsertedAt.UnixMicro(), bs[n:])
	return
}

func (documentSer) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	d.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = raw.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt = time.UnixMicro(micros).UTC()
	return
}

func (documentSer) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.Name)
	size += varint.Int.Size(d.ChunkCount)
	size += raw.Int64.Size(d.InsertedAt.UnixMicro())
	return
}

func (documentSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.Int64.Skip(bs[n:])
	n += n1
	return
}

type chunkSer struct{}

func (chunkSer) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.DocumentId, bs)
	n += varint.Int.Marshal(c.Ordinal, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += varint.Int.Marshal(c.Page, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	return
}

func (chunkSer) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	c.DocumentId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Page, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkSer) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.Ordinal)
	size += ord.String.Size(c.Text)
	size += varint.Int.Size(c.Page)
	size += vectorMUS.Size(c.Vector)
	return
}

func (chunkSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	return
}
