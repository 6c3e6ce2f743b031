package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Export lifecycle (info)
		"Exporting timelapse %s to %s":          "タイムラプス %s を %s へエクスポート中",
		"Encoded %d frames into %d bytes":       "%d フレームを %d バイトにエンコードしました",
		"Output saved to %s":                    "出力を %s に保存しました",
		"Interrupted, finalizing output...":     "中断されました。出力を確定中...",
		"Export cancelled after %d dates":       "%d 日付の処理後にエクスポートを中止しました",
		"Export completed: %d dates, %d frames": "エクスポート完了: %d 日付, %d フレーム",

		// Pipeline internals (debug)
		"Negotiated %s at %dx%d, %d bps": "%s を %dx%d, %d bps でネゴシエートしました",
		"Composited frame for %s":        "%s のフレームを合成しました",
		"Stop observed, ending sequence": "停止要求を検知し、シーケンスを終了します",
		"Map canvas ready at %dx%d":      "マップキャンバス準備完了 (%dx%d)",
		"Using placeholder canvas: %s":   "プレースホルダーキャンバスを使用: %s",

		// Probe command
		"ffmpeg found, %s selected":         "ffmpeg を検出、%s を選択しました",
		"No supported codec on this system": "このシステムに対応コーデックがありません",
	})
}
