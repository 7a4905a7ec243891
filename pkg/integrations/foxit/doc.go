// Package foxit provides a client for Foxit PDF Services, used by Export
// nodes to turn the text of every node into a PDF report.
//
// A conversion is two calls: the HTML is uploaded as a document, then a
// pdf-from-html task is created for it. [Client.Convert] does both;
// [Client.Status] polls the task afterwards.
package foxit
