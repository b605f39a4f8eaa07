package imgx

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	"image/png"

	"golang.org/x/image/draw"
)

// IconSizes 是图标分级的固定边长（像素），从大到小。
var IconSizes = []int{4096, 1024, 256, 64, 16}

// IsRaster 判断数据能否被标准库解码器识别（SVG 等矢量格式返回 false）。
func IsRaster(b []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(b))
	return err == nil
}

// IconPNG 把国旗图片缩放进 size×size 的透明正方形画布（保持宽高比、居中），编码为 PNG。
//
// 约束：
// - 输入允许是 PNG/JPEG/GIF
// - 输出固定为 PNG
// - 缩放使用 CatmullRom（大幅缩小时质量明显好于最近邻）
func IconPNG(src []byte, size int) ([]byte, error) {
	if len(src) == 0 {
		return nil, errors.New("图片为空")
	}
	if size <= 0 {
		return nil, errors.New("图标尺寸无效")
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}

	w, h := fit(b.Dx(), b.Dy(), size)
	x0 := (size - w) / 2
	y0 := (size - h) / 2

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), img, b, draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fit 返回把 w×h 等比缩放进 size×size 后的尺寸（至少 1 像素）。
func fit(w, h, size int) (int, int) {
	if w >= h {
		nh := h * size / w
		if nh < 1 {
			nh = 1
		}
		return size, nh
	}
	nw := w * size / h
	if nw < 1 {
		nw = 1
	}
	return nw, size
}
