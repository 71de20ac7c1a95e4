package pkgfile

import (
	"github.com/lumina-rt/objectcore/pkg/guid"
	"github.com/lumina-rt/objectcore/pkg/serialize"
)

func writeHeader(ar *serialize.Archive, h Header) {
	ar.WriteUint32(h.Tag)
	ar.WriteInt32(h.Version)
	ar.WriteInt64(h.ImportOffset)
	ar.WriteInt32(h.ImportCount)
	ar.WriteInt64(h.ExportOffset)
	ar.WriteUint32(h.ExportCount)
	ar.WriteInt64(h.ObjectDataOff)
	ar.WriteInt64(h.ThumbnailOff)
}

func readHeader(ar *serialize.Archive) Header {
	return Header{
		Tag:           ar.ReadUint32(),
		Version:       ar.ReadInt32(),
		ImportOffset:  ar.ReadInt64(),
		ImportCount:   ar.ReadInt32(),
		ExportOffset:  ar.ReadInt64(),
		ExportCount:   ar.ReadUint32(),
		ObjectDataOff: ar.ReadInt64(),
		ThumbnailOff:  ar.ReadInt64(),
	}
}

func writeImportTable(ar *serialize.Archive, imports []Import) {
	for _, imp := range imports {
		ar.WriteBytes(imp.GUID.Bytes())
	}
}

func readImportTable(ar *serialize.Archive, count int32) []Import {
	imports := make([]Import, count)
	for i := range imports {
		g, err := guid.FromBytes(ar.ReadBytes(guid.Size))
		if err != nil {
			ar.SetError(err)
			return imports
		}
		imports[i] = Import{GUID: g}
	}
	return imports
}

func writeExportTable(ar *serialize.Archive, exports []Export) {
	for _, exp := range exports {
		ar.WriteBytes(exp.GUID.Bytes())
		ar.WriteString(exp.Name)
		ar.WriteString(exp.ClassName)
		ar.WriteInt64(exp.Offset)
		ar.WriteInt64(exp.Size)
	}
}

func readExportTable(ar *serialize.Archive, count uint32) []Export {
	exports := make([]Export, count)
	for i := range exports {
		g, err := guid.FromBytes(ar.ReadBytes(guid.Size))
		if err != nil {
			ar.SetError(err)
			return exports
		}
		exports[i] = Export{
			GUID:      g,
			Name:      ar.ReadString(),
			ClassName: ar.ReadString(),
			Offset:    ar.ReadInt64(),
			Size:      ar.ReadInt64(),
		}
	}
	return exports
}

func writeThumbnail(ar *serialize.Archive, t *Thumbnail) {
	if t == nil {
		ar.WriteBool(false)
		return
	}
	ar.WriteBool(true)
	ar.WriteInt32(t.Width)
	ar.WriteInt32(t.Height)
	ar.WriteBytes(t.Pixels)
}

func readThumbnail(ar *serialize.Archive) *Thumbnail {
	if !ar.ReadBool() {
		return nil
	}
	t := &Thumbnail{Width: ar.ReadInt32(), Height: ar.ReadInt32()}
	t.Pixels = ar.ReadBytes(int(t.Width) * int(t.Height) * 4)
	return t
}
